package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/botapi"
)

// botHandler receives bot activities (install lifecycle and card actions).
// Invoke activities answer with an invoke response body; lifecycle events
// answer with an empty object.
func botHandler(h *botapi.Handler, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var act botapi.Activity
		if err := c.ShouldBindJSON(&act); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_activity", "msg": err.Error()})
			return
		}

		resp, err := h.Handle(c.Request.Context(), act)
		if err != nil {
			log.Error("bot activity failed", zap.String("type", act.Type), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if resp == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
