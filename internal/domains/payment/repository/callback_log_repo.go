package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"printshop-backend/internal/domains/payment/model"
)

// =====================================================
// CALLBACK LOG REPOSITORY IMPLEMENTATION
// =====================================================
type callbackLogRepository struct {
	pool *pgxpool.Pool
}

func NewCallbackLogRepository(pool *pgxpool.Pool) CallbackLogRepository {
	return &callbackLogRepository{pool: pool}
}

// Create appends an audit row for a received notification. Rows carry only
// an excerpt of the payload and never the signature.
func (r *callbackLogRepository) Create(ctx context.Context, entry *model.CallbackLog) error {
	query := `
		INSERT INTO payment_callback_logs (
			id, order_reference, order_id, outcome, response_code,
			signature_version, payload_excerpt, received_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.OrderReference,
		entry.OrderID,
		string(entry.Outcome),
		entry.ResponseCode,
		entry.SignatureVersion,
		entry.PayloadExcerpt,
		entry.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create callback log: %w", err)
	}

	return nil
}

func (r *callbackLogRepository) ListByReference(ctx context.Context, orderReference string) ([]model.CallbackLog, error) {
	query := `
		SELECT id, order_reference, order_id, outcome, response_code,
		       signature_version, payload_excerpt, received_at
		FROM payment_callback_logs
		WHERE order_reference = $1
		ORDER BY received_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderReference)
	if err != nil {
		return nil, fmt.Errorf("failed to list callback logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.CallbackLog, 0)
	for rows.Next() {
		var (
			entry   model.CallbackLog
			outcome string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.OrderReference,
			&entry.OrderID,
			&outcome,
			&entry.ResponseCode,
			&entry.SignatureVersion,
			&entry.PayloadExcerpt,
			&entry.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan callback log: %w", err)
		}
		entry.Outcome = model.CallbackOutcome(outcome)
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating callback logs: %w", err)
	}

	return logs, nil
}
