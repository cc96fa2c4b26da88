package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	orderModel "printshop-backend/internal/domains/order/model"
	orderRepo "printshop-backend/internal/domains/order/repository"
	"printshop-backend/internal/domains/payment/model"
	emailInfra "printshop-backend/internal/infrastructure/email"
	"printshop-backend/internal/shared/utils"
	"printshop-backend/pkg/logger"
)

type SendPaymentConfirmationHandler struct {
	orderRepo    orderRepo.OrderRepository
	emailService emailInfra.EmailService
}

func NewSendPaymentConfirmationHandler(
	orderRepo orderRepo.OrderRepository,
	emailService emailInfra.EmailService,
) *SendPaymentConfirmationHandler {
	return &SendPaymentConfirmationHandler{
		orderRepo:    orderRepo,
		emailService: emailService,
	}
}

func (h *SendPaymentConfirmationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.SendPaymentConfirmationPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logger.Info("Processing payment confirmation task", map[string]interface{}{
		"order_id":        payload.OrderID,
		"order_reference": payload.OrderReference,
	})

	// 1. Load recipient
	contact, err := h.orderRepo.GetContact(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, orderModel.ErrOrderNotFound) {
			return fmt.Errorf("order %s: %v: %w", payload.OrderID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("get order contact: %w", err)
	}

	// 2. Only paid orders get the email
	if contact.Status != orderModel.OrderStatusCompleted {
		logger.Warn("Order not completed, skip payment confirmation", map[string]interface{}{
			"order_id": payload.OrderID,
			"status":   contact.Status,
		})
		return nil
	}
	if contact.Email == "" {
		logger.Warn("Order has no contact email, skip payment confirmation", map[string]interface{}{
			"order_id": payload.OrderID,
		})
		return nil
	}

	// 3. Send
	err = h.emailService.SendPaymentConfirmationEmail(ctx, emailInfra.PaymentConfirmationData{
		Email:             contact.Email,
		CustomerName:      contact.CustomerName,
		OrderID:           payload.OrderID,
		OrderReference:    payload.OrderReference,
		AuthorizationCode: payload.AuthorizationCode,
		Total:             utils.FormatMinorUnits(contact.TotalMinor),
		Currency:          contact.Currency,
	})
	if err != nil {
		logger.ErrorWithFields("Failed to send payment confirmation email", err, map[string]interface{}{
			"order_id": payload.OrderID,
		})
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("Sent payment confirmation email", map[string]interface{}{
		"order_id": payload.OrderID,
	})

	return nil
}
