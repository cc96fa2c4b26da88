package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type dependencyCheck struct {
	name string
	fn   func(ctx context.Context) error
}

// HealthChecker runs the startup checks and serves the probes
type HealthChecker struct {
	checks []dependencyCheck
}

func newHealthChecker(checks ...dependencyCheck) *HealthChecker {
	return &HealthChecker{checks: checks}
}

// checkAll stops at the first failing dependency
func (h *HealthChecker) checkAll(ctx context.Context) error {
	for _, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := check.fn(checkCtx)
		cancel()

		if err != nil {
			log.Error().Err(err).Str("check", check.name).Msg("Health check failed")
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Info().Str("check", check.name).Msg("Health check passed")
	}
	return nil
}

// router exposes /health (liveness) and /ready (dependencies reachable)
func (h *HealthChecker) router() *gin.Engine {
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "printshop-worker"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := h.checkAll(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "READY"})
	})
	return r
}

func startHealthCheckServer(addr string, h *HealthChecker) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Health check server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Health check server failed")
		}
	}()

	return srv
}
