package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

type storeHistoryRepository struct {
	db *sql.DB
}

// NewStoreHistoryRepository создаёт PostgreSQL-реализацию аудита склада.
func NewStoreHistoryRepository(store *Store) domain.StoreHistoryRepository {
	return &storeHistoryRepository{db: store.DB()}
}

func (r *storeHistoryRepository) Append(h domain.StoreHistory) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO store_history (
			id, store_id, order_id, customer_id, partner_id,
			size_label, delta, new_stock, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		h.ID, h.StoreID, h.OrderID, h.CustomerID, h.PartnerID,
		h.SizeLabel, h.Delta, h.NewStock, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert store history: %w", mapConstraintErr(err))
	}
	return nil
}

func (r *storeHistoryRepository) ListByStore(storeID string) ([]domain.StoreHistory, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, store_id, order_id, customer_id, partner_id,
		       size_label, delta, new_stock, created_at
		FROM store_history
		WHERE store_id = $1
		ORDER BY created_at ASC, id ASC
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.StoreHistory, 0)
	for rows.Next() {
		var h domain.StoreHistory
		if err := rows.Scan(
			&h.ID, &h.StoreID, &h.OrderID, &h.CustomerID, &h.PartnerID,
			&h.SizeLabel, &h.Delta, &h.NewStock, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan store history row: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store history rows: %w", err)
	}

	return entries, nil
}

var _ domain.StoreHistoryRepository = (*storeHistoryRepository)(nil)
