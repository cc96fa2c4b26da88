package job

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"printshop-backend/internal/domains/payment/model"
	"printshop-backend/internal/shared"
	"printshop-backend/internal/shared/utils"
	"printshop-backend/pkg/logger"
)

// TaskEnqueuer is the part of *asynq.Client the notifier uses.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ConfirmationEnqueuer hands the confirmation email to the worker. The task
// id is derived from the order so a second enqueue for the same order is
// dropped by asynq.
type ConfirmationEnqueuer struct {
	client TaskEnqueuer
}

func NewConfirmationEnqueuer(client TaskEnqueuer) *ConfirmationEnqueuer {
	return &ConfirmationEnqueuer{client: client}
}

func ConfirmationTaskID(orderID string) string {
	return "payment-confirmation:" + orderID
}

func (e *ConfirmationEnqueuer) NotifyPaymentConfirmed(ctx context.Context, payload model.SendPaymentConfirmationPayload) error {
	task, err := utils.MarshalTask(shared.TypeSendPaymentConfirmation, payload)
	if err != nil {
		return err
	}

	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueCritical),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.TaskID(ConfirmationTaskID(payload.OrderID)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Info("Payment confirmation already queued", map[string]interface{}{
			"order_id": payload.OrderID,
		})
		return nil
	}
	return err
}
