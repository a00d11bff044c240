package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidversegaming/prediction-market-explorer/internal/api"
	"github.com/davidversegaming/prediction-market-explorer/internal/config"
	"github.com/davidversegaming/prediction-market-explorer/internal/service"
	"github.com/davidversegaming/prediction-market-explorer/internal/upstream"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{
		"upstream": cfg.Upstream.BaseURL,
		"port":     cfg.Server.Port,
		"mode":     cfg.Server.Mode,
	}).Info("Configuration loaded")

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestID(), api.RequestMetrics())

	if len(cfg.CORS.AllowOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORS.AllowOrigins
		r.Use(cors.New(corsCfg))
	}

	pprof.Register(r)

	client := upstream.NewClient(&cfg.Upstream, logger)
	marketService := service.NewMarketService(client, logger)

	eventHandler := api.NewEventHandler(marketService, logger)
	r.GET("/api/events", eventHandler.ListEvents)
	r.GET("/api/events/:slug", eventHandler.GetEventBySlug)

	marketHandler := api.NewMarketHandler(marketService, logger)
	r.GET("/api/markets", marketHandler.ListMarkets)
	r.GET("/api/markets/:id", marketHandler.GetMarketByID)

	proxyHandler := api.NewProxyHandler(client, logger)
	r.GET("/api/proxy", proxyHandler.Proxy)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown failed")
	}
	logger.Info("Server stopped")
}
