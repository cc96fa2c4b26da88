package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"printshop-backend/pkg/container"
	"printshop-backend/pkg/logger"
)

func main() {
	envFileErr := godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)
	gin.SetMode(gin.ReleaseMode)

	if envFileErr != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	c, err := container.NewContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize container")
	}
	defer c.Cleanup()

	healthAddr := os.Getenv("WORKER_HEALTH_ADDR")
	if healthAddr == "" {
		healthAddr = ":9999"
	}
	cfg := newWorkerConfig(c.Config, healthAddr)

	checker := newHealthChecker(
		dependencyCheck{name: "redis", fn: c.Redis.HealthCheck},
		dependencyCheck{name: "database", fn: c.DB.HealthCheck},
	)
	if err := checker.checkAll(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Startup health check failed")
	}

	handlers := initializeHandlers(c, cfg)
	srv := setupAsynqServer(cfg, handlers)
	scheduler := setupScheduler(cfg)
	healthSrv := startHealthCheckServer(cfg.HealthAddr, checker)

	waitForShutdown(srv, scheduler, healthSrv)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler, healthSrv interface {
	Shutdown(ctx context.Context) error
}) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Gracefully stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(ctx)

	scheduler.Shutdown()
	srv.Shutdown()
	log.Info().Msg("Stopped")
}
