package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"printshop-backend/internal/domains/payment/model"
)

const pgUniqueViolation = "23505"

// =====================================================
// ORDER REFERENCE MAPPING REPOSITORY IMPLEMENTATION
// =====================================================
type mappingRepository struct {
	pool *pgxpool.Pool
}

func NewOrderReferenceRepository(pool *pgxpool.Pool) OrderReferenceRepository {
	return &mappingRepository{pool: pool}
}

// Create inserts the mapping. The primary key on order_reference is the
// collision detector for the probabilistic reference codec.
func (r *mappingRepository) Create(ctx context.Context, mapping *model.OrderReferenceMapping) error {
	query := `
		INSERT INTO payment_order_references (
			order_reference, order_id, amount_minor, currency
		) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		mapping.OrderReference,
		mapping.OrderID,
		mapping.AmountMinor,
		mapping.Currency,
	).Scan(&mapping.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("reference %s: %w", mapping.OrderReference, model.ErrReferenceCollision)
		}
		return fmt.Errorf("failed to create order reference mapping: %w", err)
	}

	return nil
}

func (r *mappingRepository) FindByReference(ctx context.Context, orderReference string) (*model.OrderReferenceMapping, error) {
	query := `
		SELECT order_reference, order_id, amount_minor, currency, created_at
		FROM payment_order_references
		WHERE order_reference = $1
	`

	var m model.OrderReferenceMapping
	err := r.pool.QueryRow(ctx, query, orderReference).Scan(
		&m.OrderReference,
		&m.OrderID,
		&m.AmountMinor,
		&m.Currency,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMappingNotFound
		}
		return nil, fmt.Errorf("failed to get order reference mapping: %w", err)
	}

	return &m, nil
}

func (r *mappingRepository) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderReferenceMapping, error) {
	query := `
		SELECT order_reference, order_id, amount_minor, currency, created_at
		FROM payment_order_references
		WHERE order_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order reference mappings: %w", err)
	}
	defer rows.Close()

	mappings := make([]model.OrderReferenceMapping, 0)
	for rows.Next() {
		var m model.OrderReferenceMapping
		if err := rows.Scan(&m.OrderReference, &m.OrderID, &m.AmountMinor, &m.Currency, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order reference mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order reference mappings: %w", err)
	}

	return mappings, nil
}
