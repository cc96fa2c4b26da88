package shared

// Asynq task types
const (
	TypeSendPaymentConfirmation = "payment:send_confirmation"
	TypeExpireAbandonedPayments = "payment:expire_abandoned"
)

// Asynq queues, highest priority first
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)
