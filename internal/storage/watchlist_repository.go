package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crypto-dashboard/internal/models"
)

// WatchlistRepository handles watchlist persistence. Symbols are stored upper-case.
type WatchlistRepository struct {
	db *PostgresDB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *PostgresDB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// ListByUserID returns the watchlist of a user, most recently added first
func (r *WatchlistRepository) ListByUserID(ctx context.Context, userID string) ([]*models.WatchlistItem, error) {
	query := `
		SELECT id, user_id, symbol, added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]*models.WatchlistItem, 0)
	for rows.Next() {
		var item models.WatchlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Symbol, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return items, nil
}

// Add inserts a symbol. A symbol already on the list is kept as is and item
// is filled with the stored row.
func (r *WatchlistRepository) Add(ctx context.Context, item *models.WatchlistItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Symbol = strings.ToUpper(item.Symbol)

	query := `
		INSERT INTO watchlist (id, user_id, symbol, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, symbol) DO UPDATE SET symbol = EXCLUDED.symbol
		RETURNING id, added_at
	`

	err := r.db.Pool().QueryRow(ctx, query, item.ID, item.UserID, item.Symbol, time.Now()).
		Scan(&item.ID, &item.AddedAt)
	if err != nil {
		return mapWriteError("add watchlist item", err, fmt.Sprintf("watchlist id already taken: %s", item.ID))
	}

	return nil
}

// Remove deletes a symbol. Removing an absent symbol is not an error.
func (r *WatchlistRepository) Remove(ctx context.Context, userID string, symbol string) error {
	query := `DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2`

	if _, err := r.db.Pool().Exec(ctx, query, userID, strings.ToUpper(symbol)); err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}

	return nil
}
