package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

type partnerRepository struct {
	db *sql.DB
}

// NewPartnerRepository создаёт PostgreSQL-реализацию PartnerRepository.
func NewPartnerRepository(store *Store) domain.PartnerRepository {
	return &partnerRepository{db: store.DB()}
}

func (r *partnerRepository) Get(id string) (domain.Partner, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var p domain.Partner
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, vat_country
		FROM partners
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.VATCountry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Partner{}, domain.ErrPartnerNotFound
		}
		return domain.Partner{}, fmt.Errorf("select partner: %w", err)
	}

	return p, nil
}

var _ domain.PartnerRepository = (*partnerRepository)(nil)
