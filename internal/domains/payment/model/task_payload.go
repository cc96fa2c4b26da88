package model

// SendPaymentConfirmationPayload is the asynq payload of the confirmation
// email sent once an order reaches completed.
type SendPaymentConfirmationPayload struct {
	OrderID           string `json:"order_id"`
	OrderReference    string `json:"order_reference"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
}

// ExpireAbandonedPaymentsPayload is the payload of the scheduled sweep of
// pending orders whose payment was never completed.
type ExpireAbandonedPaymentsPayload struct {
	BatchSize int `json:"batch_size"`
}
