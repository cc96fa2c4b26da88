package utils

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// MarshalTask builds an asynq task with a JSON payload.
func MarshalTask(taskType string, payload interface{}, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data, opts...), nil
}

// UnmarshalTask decodes the JSON payload of t into v. A payload that cannot
// be decoded will never succeed, so the error skips retries.
func UnmarshalTask(t *asynq.Task, v interface{}) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

// FormatMinorUnits renders an amount in cents as major units ("1999" -> "19.99").
func FormatMinorUnits(amountMinor int64) string {
	return decimal.New(amountMinor, -2).StringFixed(2)
}
