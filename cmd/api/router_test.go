package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-backend/internal/config"
	orderHandler "printshop-backend/internal/domains/order/handler"
	orderModel "printshop-backend/internal/domains/order/model"
	paymentHandler "printshop-backend/internal/domains/payment/handler"
	"printshop-backend/internal/domains/payment/model"
	"printshop-backend/internal/shared/middleware"
	"printshop-backend/pkg/container"
	"printshop-backend/pkg/jwt"
)

type stubPaymentService struct {
	callbacks int
}

func (s *stubPaymentService) PreparePayment(ctx context.Context, req model.PreparePaymentRequest) (*model.PreparedPayment, error) {
	return &model.PreparedPayment{
		EncodedParams:    "e30=",
		Signature:        "sig",
		SignatureVersion: "HMAC_SHA256_V1",
		FormURL:          "https://sis-t.redsys.es:25443/sis/realizarPago",
	}, nil
}

func (s *stubPaymentService) ProcessRedsysCallback(ctx context.Context, req model.RedsysCallbackRequest) model.CallbackResult {
	s.callbacks++
	return model.CallbackResult{Outcome: model.OutcomeMalformed}
}

func (s *stubPaymentService) ListOrderReferences(ctx context.Context, orderID string) ([]model.OrderReferenceMapping, error) {
	return []model.OrderReferenceMapping{}, nil
}

func (s *stubPaymentService) ListCallbackLogs(ctx context.Context, orderReference string) ([]model.CallbackLog, error) {
	return []model.CallbackLog{}, nil
}

type stubOrderService struct{}

func (stubOrderService) GetStatusHistory(ctx context.Context, orderID string) (string, []orderModel.OrderStatusHistory, error) {
	return orderModel.OrderStatusPending, []orderModel.OrderStatusHistory{}, nil
}

func (stubOrderService) ExpireAbandonedPayments(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return 0, nil
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(ctx context.Context) error { return s.err }

func newTestContainer(payments *stubPaymentService) *container.Container {
	return &container.Container{
		Config: &config.Config{
			App: config.AppConfig{
				Version:        "test",
				AllowedOrigins: []string{"http://shop.test"},
			},
			RateLimit: config.RateLimitConfig{PreparePerMinute: 60, PrepareBurst: 2},
		},
		JWTManager:     jwt.NewManager("router-secret", time.Hour),
		PaymentHandler: paymentHandler.NewPaymentHandler(payments),
		OrderHandler:   orderHandler.NewOrderHandler(stubOrderService{}),
	}
}

func token(t *testing.T, c *container.Container, role string) string {
	t.Helper()
	tok, err := c.JWTManager.GenerateAccessToken("user-1", "ops@printshop.dev", role)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRouter_WebhookIsPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	payments := &stubPaymentService{}
	router := SetupRouter(newTestContainer(payments))

	form := url.Values{"Ds_SignatureVersion": {"HMAC_SHA256_V1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/redsys", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, 1, payments.callbacks)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_PrepareIsRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(newTestContainer(&stubPaymentService{}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/redsys/prepare",
			strings.NewReader(`{"orderId":"ord_1","amount":19.99}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRouter_PrepareAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(newTestContainer(&stubPaymentService{}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/payments/redsys/prepare", nil)
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://shop.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_AdminRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestContainer(&stubPaymentService{})
	router := SetupRouter(c)

	paths := []string{
		"/api/v1/payments/orders/ord_1/references",
		"/api/v1/orders/ord_1/status-history",
		"/api/v1/payments/references/312345612345/callbacks",
	}

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"customer", token(t, c, "customer"), http.StatusForbidden},
		{"admin", token(t, c, middleware.RoleAdmin), http.StatusOK},
	}

	for _, path := range paths {
		for _, tt := range tests {
			t.Run(tt.name+" "+path, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				if tt.auth != "" {
					req.Header.Set("Authorization", tt.auth)
				}
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)

				assert.Equal(t, tt.want, w.Code)
			})
		}
	}
}

func TestHealthCheckHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		checks     map[string]healthChecker
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			checks:     map[string]healthChecker{"database": stubChecker{}, "redis": stubChecker{}},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "redis down degrades only",
			checks:     map[string]healthChecker{"database": stubChecker{}, "redis": stubChecker{err: errors.New("refused")}},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
		{
			name:       "database down",
			checks:     map[string]healthChecker{"database": stubChecker{err: errors.New("refused")}, "redis": stubChecker{}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
		{
			name:       "nothing connected",
			checks:     map[string]healthChecker{},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", healthCheckHandler("1.0.0", tt.checks))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.NotContains(t, w.Body.String(), "refused")
		})
	}
}
