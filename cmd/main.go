package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/container"
	"github.com/oksasatya/go-task-manager/internal/router"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	infra, err := container.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to connect infrastructure: %v", err)
	}
	defer infra.Close()

	c, err := container.Build(cfg, logger, infra)
	if err != nil {
		logger.Fatalf("failed to build container: %v", err)
	}

	r := router.New(c)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s (store=%s)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
