package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"printshop-backend/internal/domains/order/model"
	"printshop-backend/internal/domains/order/service"
	"printshop-backend/internal/shared/response"
	"printshop-backend/pkg/logger"
)

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

type statusHistoryResponse struct {
	OrderID string                     `json:"order_id"`
	Status  string                     `json:"status"`
	History []model.OrderStatusHistory `json:"history"`
}

// GetStatusHistory returns the status timeline of one order
// GET /api/v1/orders/:id/status-history
func (h *OrderHandler) GetStatusHistory(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	if orderID == "" {
		response.BadRequest(c, "order id is required")
		return
	}

	status, history, err := h.orderService.GetStatusHistory(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeOrderNotFound, "Order not found")
			return
		}
		logger.Error("Failed to load order status history", err)
		response.InternalServerError(c, "Failed to load order status history")
		return
	}

	response.Success(c, http.StatusOK, statusHistoryResponse{
		OrderID: orderID,
		Status:  status,
		History: history,
	})
}
