package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

type supplyRepository struct {
	db *sql.DB
}

// NewSupplyRepository создаёт PostgreSQL-реализацию SupplyRepository.
func NewSupplyRepository(store *Store) domain.SupplyRepository {
	return &supplyRepository{db: store.DB()}
}

func (r *supplyRepository) Get(id string) (domain.Supply, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		s            domain.Supply
		storeID      sql.NullString
		materialsRaw []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, name, manufacturer, model, materials,
		       store_id, price_material, price_labor, type, created_at
		FROM supplies
		WHERE id = $1
	`, id).Scan(
		&s.ID, &s.PartnerID, &s.Name, &s.Manufacturer, &s.Model, &materialsRaw,
		&storeID, &s.PriceMaterial, &s.PriceLabor, &s.Type, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Supply{}, domain.ErrSupplyNotFound
		}
		return domain.Supply{}, fmt.Errorf("select supply: %w", err)
	}

	s.StoreID = storeID.String
	if len(materialsRaw) > 0 {
		if err := json.Unmarshal(materialsRaw, &s.Materials); err != nil {
			return domain.Supply{}, fmt.Errorf("decode supply materials: %w", err)
		}
	}

	return s, nil
}

var _ domain.SupplyRepository = (*supplyRepository)(nil)
