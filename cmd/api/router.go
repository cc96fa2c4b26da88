package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"printshop-backend/internal/shared/middleware"
	"printshop-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.AllowedOrigins),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c.Config.App.Version, healthChecks(c)))

		setupPaymentRoutes(v1, c)
		setupWebhookRoutes(v1, c)
		setupOrderRoutes(v1, c)
	}

	return router
}

// ========================================
// PAYMENT ROUTES
// ========================================
func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	limiter := middleware.NewRateLimiter(c.Config.RateLimit.PreparePerMinute, c.Config.RateLimit.PrepareBurst)

	payments := v1.Group("/payments")
	{
		payments.POST("/redsys/prepare",
			limiter.Middleware(),
			middleware.OptionalAuth(c.JWTManager),
			c.PaymentHandler.PrepareRedsysPayment,
		)

		payments.GET("/orders/:order_id/references",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.AdminMiddleware(),
			c.PaymentHandler.ListOrderReferences,
		)

		payments.GET("/references/:reference/callbacks",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.AdminMiddleware(),
			c.PaymentHandler.ListReferenceCallbacks,
		)
	}
}

// ========================================
// WEBHOOK ROUTES
// ========================================

// The gateway posts server to server: no auth and no rate limit.
func setupWebhookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/redsys", c.PaymentHandler.RedsysWebhook)
	}
}

// ========================================
// ORDER ROUTES
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	orders := v1.Group("/orders")
	orders.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.AdminMiddleware(),
	)
	{
		orders.GET("/:id/status-history", c.OrderHandler.GetStatusHistory)
	}
}

// ========================================
// HEALTH CHECK
// ========================================

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthChecks collects the dependencies that were actually built.
// "database" is critical, the others only degrade the status.
func healthChecks(c *container.Container) map[string]healthChecker {
	checks := make(map[string]healthChecker)
	if c.DB != nil {
		checks["database"] = c.DB
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	return checks
}

func healthCheckHandler(version string, checks map[string]healthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		statusCode := http.StatusOK
		services := gin.H{}

		for _, name := range []string{"database", "redis"} {
			checker, ok := checks[name]
			if !ok {
				services[name] = "disconnected"
			} else if err := checker.HealthCheck(ctx); err != nil {
				services[name] = "unavailable"
			} else {
				services[name] = "ok"
			}

			if services[name] != "ok" {
				status = "degraded"
				if name == "database" {
					statusCode = http.StatusServiceUnavailable
				}
			}
		}

		c.JSON(statusCode, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
			"services":  services,
		})
	}
}
