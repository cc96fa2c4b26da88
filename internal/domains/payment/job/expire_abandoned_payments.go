package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	orderService "printshop-backend/internal/domains/order/service"
	"printshop-backend/internal/domains/payment/model"
	"printshop-backend/internal/shared/utils"
	"printshop-backend/pkg/logger"
)

const defaultExpireBatchSize = 200

// ExpireAbandonedPaymentsHandler cancels orders whose shopper left the
// gateway page and never produced a notification.
type ExpireAbandonedPaymentsHandler struct {
	orderService orderService.OrderService
	abandonAfter time.Duration
	now          func() time.Time
}

func NewExpireAbandonedPaymentsHandler(
	orderService orderService.OrderService,
	abandonAfter time.Duration,
) *ExpireAbandonedPaymentsHandler {
	return &ExpireAbandonedPaymentsHandler{
		orderService: orderService,
		abandonAfter: abandonAfter,
		now:          time.Now,
	}
}

func (h *ExpireAbandonedPaymentsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ExpireAbandonedPaymentsPayload
	if len(t.Payload()) > 0 {
		if err := utils.UnmarshalTask(t, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = defaultExpireBatchSize
	}

	cutoff := h.now().Add(-h.abandonAfter)

	expired, err := h.orderService.ExpireAbandonedPayments(ctx, cutoff, payload.BatchSize)
	if err != nil {
		return fmt.Errorf("expire abandoned payments: %w", err)
	}

	logger.Info("Expired abandoned payments", map[string]interface{}{
		"cutoff":  cutoff.Format(time.RFC3339),
		"expired": expired,
	})

	return nil
}
