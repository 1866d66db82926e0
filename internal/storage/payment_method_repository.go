package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crypto-dashboard/internal/models"
)

// PaymentMethodRepository handles payment_methods persistence
type PaymentMethodRepository struct {
	db *PostgresDB
}

// NewPaymentMethodRepository creates a new payment method repository
func NewPaymentMethodRepository(db *PostgresDB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

// ListByUserID returns the payment methods of a user, newest first
func (r *PaymentMethodRepository) ListByUserID(ctx context.Context, userID string) ([]*models.PaymentMethod, error) {
	query := `
		SELECT id, user_id, type, name, is_default, verified,
		       to_char(added_date, 'YYYY-MM-DD'), created_at
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	methods := make([]*models.PaymentMethod, 0)
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Type,
			&m.Name,
			&m.IsDefault,
			&m.Verified,
			&m.AddedDate,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment methods: %w", err)
	}

	return methods, nil
}

// ReplaceAll deletes every payment method of the user and inserts methods
// in one transaction. Backend ids are reassigned on every call.
func (r *PaymentMethodRepository) ReplaceAll(ctx context.Context, userID string, methods []*models.PaymentMethod) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM payment_methods WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to delete payment methods: %w", err)
		}

		if len(methods) == 0 {
			return nil
		}

		insert := `
			INSERT INTO payment_methods (id, user_id, type, name, is_default, verified, added_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, '')::date, CURRENT_DATE), $8)
		`

		// created_at steps back per row so the newest-first read keeps the saved order
		now := time.Now()
		batch := &pgx.Batch{}
		for i, m := range methods {
			m.ID = uuid.New().String()
			m.UserID = userID
			m.CreatedAt = now.Add(-time.Duration(i) * time.Microsecond)
			batch.Queue(insert, m.ID, m.UserID, m.Type, m.Name, m.IsDefault, m.Verified, m.AddedDate, m.CreatedAt)
		}

		results := tx.SendBatch(ctx, batch)
		for range methods {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert payment method: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to insert payment methods: %w", err)
		}

		return nil
	})
}
