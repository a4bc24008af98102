package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/aws"
	"github.com/orderdesk/backend/internal/botapi"
	"github.com/orderdesk/backend/internal/config"
	"github.com/orderdesk/backend/internal/conversations"
	"github.com/orderdesk/backend/internal/handlers"
	"github.com/orderdesk/backend/internal/live"
	"github.com/orderdesk/backend/internal/logger"
	"github.com/orderdesk/backend/internal/metrics"
	"github.com/orderdesk/backend/internal/notify"
	"github.com/orderdesk/backend/internal/orders"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(cfg.Logger))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load(os.Getenv("ORDERDESK_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	clients, err := aws.NewClients(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		zlog.Fatal("failed to init aws clients", zap.Error(err))
	}

	repo := orders.NewRepository(clients.DynamoDB, cfg.Tables.Orders, zlog.Named("orders"))
	registry := conversations.NewRegistry(clients.DynamoDB, cfg.Tables.Subscriptions, zlog.Named("conversations"))

	if err := registry.EnsureTable(ctx); err != nil {
		zlog.Fatal("subscriptions table bootstrap failed", zap.Error(err))
	}
	if cfg.Seed.Enabled {
		if err := repo.SeedIfEmpty(ctx); err != nil {
			zlog.Fatal("orders seed failed", zap.Error(err))
		}
	} else if err := repo.EnsureTable(ctx); err != nil {
		zlog.Fatal("orders table bootstrap failed", zap.Error(err))
	}

	hub := live.NewHub(zlog.Named("live"))

	var cw aws.CloudWatchAPI
	if cfg.Metrics.Enabled {
		cw = clients.CloudWatch
	}
	recorder := metrics.NewRecorder(cw, cfg.Metrics.Namespace, zlog.Named("metrics"))

	connector := botapi.NewConnector(cfg.Bot.Token)
	deliverer := notify.NewDeliverer(registry, connector, recorder, zlog.Named("deliver"))

	var publisher *aws.Publisher
	if cfg.Queue.URL != "" {
		publisher = aws.NewPublisher(clients.SQS, cfg.Queue.URL)
	}
	notifier := notify.NewNotifier(hub, publisher, deliverer, recorder, zlog.Named("notify"))

	botHandler := botapi.NewHandler(registry, repo, notifier, zlog.Named("bot"))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(handlers.HandlerConfig{
		Repo:       repo,
		Hub:        hub,
		Notifier:   notifier,
		BotHandler: botHandler,
		Logger:     zlog.Named("http"),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
}
