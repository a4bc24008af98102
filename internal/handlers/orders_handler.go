package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/botapi"
	"github.com/orderdesk/backend/internal/live"
	"github.com/orderdesk/backend/internal/notify"
	"github.com/orderdesk/backend/internal/orders"
	"github.com/orderdesk/backend/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP API.
type HandlerConfig struct {
	Repo       *orders.Repository
	Hub        *live.Hub
	Notifier   *notify.Notifier
	BotHandler *botapi.Handler
	Logger     *zap.Logger
}

// RegisterRoutes registers the order, customer, live-event and bot routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r.GET("/api/orders", func(c *gin.Context) {
		list, err := cfg.Repo.List(c.Request.Context())
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.POST("/api/orders", func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		order, err := cfg.Repo.Create(c.Request.Context(), req.Customer, req.Amount)
		if err != nil {
			serverError(c, err)
			return
		}

		cfg.Notifier.OrderCreated(c.Request.Context(), *order)
		c.JSON(http.StatusCreated, order)
	})

	r.PUT("/api/orders/:id", func(c *gin.Context) {
		var req validation.UpdateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		patch := orders.Patch{
			Customer: req.Customer,
			Amount:   req.Amount,
			Date:     req.Date,
		}
		if req.Status != nil {
			status := orders.Status(*req.Status)
			patch.Status = &status
		}

		order, err := cfg.Repo.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.GET("/api/customers", func(c *gin.Context) {
		list, err := cfg.Repo.List(c.Request.Context())
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders.Summaries(list))
	})

	r.GET("/api/customers/:name/orders", func(c *gin.Context) {
		list, err := cfg.Repo.ListByCustomer(c.Request.Context(), c.Param("name"))
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.PUT("/api/customers/:name", func(c *gin.Context) {
		var req validation.RenameCustomerRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		count, err := cfg.Repo.RenameCustomer(c.Request.Context(), c.Param("name"), req.NewName)
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": count})
	})

	r.GET("/api/orders/events", eventsHandler(cfg.Hub))

	r.POST("/api/messages", botHandler(cfg.BotHandler, log))
}

// serverError reports any repository failure the API contract collapses
// into a 500.
func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
