package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"printshop-backend/internal/domains/payment/model"
	"printshop-backend/internal/domains/payment/service"
	"printshop-backend/internal/shared/response"
	"printshop-backend/pkg/logger"
)

// callbackAck is the body the gateway expects for every notification.
const callbackAck = "OK"

type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// =====================================================
// CHECKOUT ENDPOINTS
// =====================================================

// PrepareRedsysPayment builds the signed form the browser posts to Redsys
// POST /api/v1/payments/redsys/prepare
func (h *PaymentHandler) PrepareRedsysPayment(c *gin.Context) {
	// Step 1: Bind request
	var req model.PreparePaymentRequest
	if err := bindJSON(c, &req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidRequest, model.GenericPrepareFailureMessage)
		return
	}

	// Step 2: Prepare
	prepared, err := h.paymentService.PreparePayment(c.Request.Context(), req)
	if err != nil {
		statusCode, errorCode := mapPaymentError(err)

		var invalid *model.InvalidRequestError
		if errors.As(err, &invalid) && invalid.Field != "" {
			response.ErrorWithDetails(c, statusCode, errorCode, model.GenericPrepareFailureMessage,
				gin.H{"field": invalid.Field})
			return
		}

		response.ErrorResponse(c, statusCode, errorCode, model.GenericPrepareFailureMessage)
		return
	}

	// Step 3: Return form data
	c.JSON(http.StatusOK, model.NewPreparePaymentResponse(prepared))
}

// ListOrderReferences lists every gateway reference allocated for an order
// GET /api/v1/payments/orders/:order_id/references
func (h *PaymentHandler) ListOrderReferences(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("order_id"))
	if orderID == "" {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	mappings, err := h.paymentService.ListOrderReferences(c.Request.Context(), orderID)
	if err != nil {
		logger.Error("Failed to list order references", err)
		response.InternalServerError(c, "Failed to list order references")
		return
	}

	refs := make([]model.OrderReferenceResponse, 0, len(mappings))
	for _, m := range mappings {
		refs = append(refs, model.NewOrderReferenceResponse(m))
	}

	response.Success(c, http.StatusOK, refs)
}

// ListReferenceCallbacks shows the notifications received for one reference
// GET /api/v1/payments/references/:reference/callbacks
func (h *PaymentHandler) ListReferenceCallbacks(c *gin.Context) {
	reference := strings.TrimSpace(c.Param("reference"))

	logs, err := h.paymentService.ListCallbackLogs(c.Request.Context(), reference)
	if err != nil {
		statusCode, errorCode := mapPaymentError(err)
		if statusCode == http.StatusBadRequest {
			response.ErrorResponse(c, statusCode, errorCode, "Invalid order reference")
			return
		}
		logger.Error("Failed to list callback logs", err)
		response.InternalServerError(c, "Failed to list callback logs")
		return
	}

	entries := make([]model.CallbackLogResponse, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, model.NewCallbackLogResponse(l))
	}

	response.Success(c, http.StatusOK, entries)
}

// =====================================================
// WEBHOOKS
// =====================================================

// RedsysWebhook handles the Redsys asynchronous notification
// POST /api/v1/webhooks/redsys
//
// The answer is always 200 "OK": the gateway retries anything else, so
// outcomes are only visible in logs and the callback audit table.
func (h *PaymentHandler) RedsysWebhook(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while processing Redsys notification", fmt.Errorf("%v", r))
			c.String(http.StatusOK, callbackAck)
		}
	}()

	// Step 1: Parse form (urlencoded or multipart)
	var req model.RedsysCallbackRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		logger.Warn("Unreadable Redsys notification body", map[string]interface{}{
			"error":        err.Error(),
			"content_type": c.ContentType(),
		})
	}

	// Step 2: Process; malformed input is classified by the service
	h.paymentService.ProcessRedsysCallback(c.Request.Context(), req)

	// Step 3: Acknowledge
	c.String(http.StatusOK, callbackAck)
}

// =====================================================
// ERROR MAPPING HELPER
// =====================================================

func mapPaymentError(err error) (statusCode int, errorCode string) {
	// Default
	statusCode = http.StatusInternalServerError
	errorCode = "INTERNAL_ERROR"

	var paymentErr *model.PaymentError
	if errors.As(err, &paymentErr) {
		errorCode = paymentErr.Code

		switch paymentErr.Code {
		case model.ErrCodeInvalidRequest, model.ErrCodeInvalidReference:
			statusCode = http.StatusBadRequest
		case model.ErrCodeReferenceCollision:
			statusCode = http.StatusServiceUnavailable
		case model.ErrCodeMappingNotFound:
			statusCode = http.StatusNotFound
		default:
			statusCode = http.StatusInternalServerError
		}
	}

	return statusCode, errorCode
}

// =====================================================
// HELPER FUNCTIONS
// =====================================================

// bindJSON binds JSON request body
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
