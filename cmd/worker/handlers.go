package main

import (
	"github.com/hibiken/asynq"

	paymentJob "printshop-backend/internal/domains/payment/job"
	"printshop-backend/internal/shared"
	"printshop-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	sendPaymentConfirmation *paymentJob.SendPaymentConfirmationHandler
	expireAbandonedPayments *paymentJob.ExpireAbandonedPaymentsHandler
}

func initializeHandlers(c *container.Container, cfg *workerConfig) *HandlerRegistry {
	return &HandlerRegistry{
		sendPaymentConfirmation: paymentJob.NewSendPaymentConfirmationHandler(c.OrderRepo, c.EmailService),
		expireAbandonedPayments: paymentJob.NewExpireAbandonedPaymentsHandler(c.OrderService, cfg.AbandonAfter),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeSendPaymentConfirmation, h.sendPaymentConfirmation.ProcessTask)
	mux.HandleFunc(shared.TypeExpireAbandonedPayments, h.expireAbandonedPayments.ProcessTask)
}
