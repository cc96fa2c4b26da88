package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"printshop-backend/internal/domains/order/model"
	"printshop-backend/pkg/database"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

func (r *postgresOrderRepository) GetStatus(ctx context.Context, orderID string) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrOrderNotFound
		}
		return "", fmt.Errorf("failed to get order status: %w", err)
	}
	return status, nil
}

// TransitionFromPending is the only write path for payment-driven status
// changes. The WHERE status = 'pending' guard makes concurrent deliveries
// for the same order race on the row lock, and only one of them updates.
func (r *postgresOrderRepository) TransitionFromPending(
	ctx context.Context,
	orderID, toStatus, notes string,
) (*model.OrderStatusHistory, error) {
	if !model.IsTerminalStatus(toStatus) {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidStatus, toStatus)
	}

	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.OrderStatusHistory, error) {
		result, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3
		`, toStatus, orderID, model.OrderStatusPending)
		if err != nil {
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}

		if result.RowsAffected() == 0 {
			return nil, model.ErrOrderNotPending
		}

		from := model.OrderStatusPending
		history := &model.OrderStatusHistory{
			ID:         uuid.New(),
			OrderID:    orderID,
			FromStatus: &from,
			ToStatus:   toStatus,
		}
		if notes != "" {
			history.Notes = &notes
		}

		if err := r.createStatusHistoryWithTx(ctx, tx, history); err != nil {
			return nil, err
		}

		return history, nil
	})
}

func (r *postgresOrderRepository) createStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderStatusHistory) error {
	query := `
		INSERT INTO order_status_history (
			id, order_id, from_status, to_status, notes
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING changed_at
	`

	err := tx.QueryRow(ctx, query,
		history.ID,
		history.OrderID,
		history.FromStatus,
		history.ToStatus,
		history.Notes,
	).Scan(&history.ChangedAt)

	if err != nil {
		return fmt.Errorf("failed to create order status history with tx: %w", err)
	}

	return nil
}

func (r *postgresOrderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]model.OrderStatusHistory, error) {
	query := `
		SELECT
			id, order_id, from_status, to_status, notes, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order status history: %w", err)
	}
	defer rows.Close()

	history := make([]model.OrderStatusHistory, 0)
	for rows.Next() {
		var h model.OrderStatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.FromStatus, &h.ToStatus, &h.Notes, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order status history: %w", err)
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order status history: %w", err)
	}

	return history, nil
}

func (r *postgresOrderRepository) GetContact(ctx context.Context, orderID string) (*model.OrderContact, error) {
	query := `
		SELECT id, customer_email, customer_name, status, total_minor, currency
		FROM orders
		WHERE id = $1
	`

	var c model.OrderContact
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&c.OrderID,
		&c.Email,
		&c.CustomerName,
		&c.Status,
		&c.TotalMinor,
		&c.Currency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order contact: %w", err)
	}

	return &c, nil
}

func (r *postgresOrderRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	query := `
		SELECT o.id
		FROM orders o
		JOIN payment_order_references p ON p.order_id = o.id
		WHERE o.status = $1
		GROUP BY o.id
		HAVING MAX(p.created_at) < $2
		ORDER BY MAX(p.created_at) ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, model.OrderStatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending orders: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale pending orders: %w", err)
	}

	return ids, nil
}
