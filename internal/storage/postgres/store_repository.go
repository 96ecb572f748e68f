package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

type storeRepository struct {
	db *sql.DB
}

// NewStoreRepository создаёт PostgreSQL-реализацию StoreRepository.
// Карта размеров хранится одной JSONB-колонкой; декремент выполняется
// условным jsonb_set, так что остаток не уходит ниже нуля даже при
// конкурентных списаниях.
func NewStoreRepository(store *Store) domain.StoreRepository {
	return &storeRepository{db: store.DB()}
}

func (r *storeRepository) Get(id string) (domain.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		s        domain.Store
		sizesRaw []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, name, type, sizes
		FROM stores
		WHERE id = $1
	`, id).Scan(&s.ID, &s.PartnerID, &s.Name, &s.Type, &sizesRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Store{}, domain.ErrStoreNotFound
		}
		return domain.Store{}, fmt.Errorf("select store: %w", err)
	}

	if err := json.Unmarshal(sizesRaw, &s.Sizes); err != nil {
		return domain.Store{}, fmt.Errorf("decode store sizes: %w", err)
	}

	return s, nil
}

func (r *storeRepository) DecrementSize(storeID, label string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var newStock int
	err := r.db.QueryRowContext(ctx, `
		UPDATE stores
		SET sizes = jsonb_set(
			sizes,
			ARRAY[$2, 'quantity'],
			to_jsonb((sizes->$2->>'quantity')::int - 1)
		)
		WHERE id = $1
		  AND sizes ? $2
		  AND (sizes->$2->>'quantity')::int >= 1
		RETURNING (sizes->$2->>'quantity')::int
	`, storeID, label).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrement store size: %w", err)
	}

	// UPDATE не затронул строк: различаем отсутствие склада, неизвестный
	// ярлык и нулевой остаток.
	var hasLabel bool
	checkErr := r.db.QueryRowContext(ctx, `
		SELECT sizes ? $2 FROM stores WHERE id = $1
	`, storeID, label).Scan(&hasLabel)
	if checkErr != nil {
		if errors.Is(checkErr, sql.ErrNoRows) {
			return 0, domain.ErrStoreNotFound
		}
		return 0, fmt.Errorf("check store size: %w", checkErr)
	}
	if !hasLabel {
		return 0, domain.ErrNoMatchingSize
	}
	return 0, domain.ErrSizeOutOfStock
}

var _ domain.StoreRepository = (*storeRepository)(nil)
