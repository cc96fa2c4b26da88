package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"printshop-backend/internal/domains/order/model"
	"printshop-backend/internal/domains/order/repository"
	"printshop-backend/pkg/logger"
)

const abandonedPaymentNote = "Payment abandoned: no gateway notification received"

// OrderService exposes read access to the payment-driven order lifecycle.
type OrderService interface {
	GetStatusHistory(ctx context.Context, orderID string) (string, []model.OrderStatusHistory, error)

	// ExpireAbandonedPayments cancels pending orders whose newest payment
	// reference is older than cutoff and returns how many were cancelled
	ExpireAbandonedPayments(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// GetStatusHistory returns the current status and every recorded transition.
func (s *orderService) GetStatusHistory(ctx context.Context, orderID string) (string, []model.OrderStatusHistory, error) {
	status, err := s.orderRepo.GetStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("get order status: %w", err)
	}

	history, err := s.orderRepo.GetStatusHistory(ctx, orderID)
	if err != nil {
		return "", nil, fmt.Errorf("get order status history: %w", err)
	}

	return status, history, nil
}

func (s *orderService) ExpireAbandonedPayments(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	orderIDs, err := s.orderRepo.ListStalePending(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list stale pending orders: %w", err)
	}

	expired := 0
	for _, orderID := range orderIDs {
		_, err := s.orderRepo.TransitionFromPending(ctx, orderID, model.OrderStatusCancelled, abandonedPaymentNote)
		if err != nil {
			// A late notification may have settled the order meanwhile
			if errors.Is(err, model.ErrOrderNotPending) {
				continue
			}
			logger.ErrorWithFields("Failed to expire abandoned payment", err, map[string]interface{}{
				"order_id": orderID,
			})
			continue
		}
		expired++
	}

	return expired, nil
}
