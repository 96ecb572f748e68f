package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func (r *customerRepository) Get(id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var c domain.Customer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, first_name, last_name,
		       foot_length_left_mm, foot_length_right_mm,
		       foot_width_left_mm, foot_width_right_mm,
		       screening_ref
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.PartnerID, &c.FirstName, &c.LastName,
		&c.FootLengthLeftMM, &c.FootLengthRightMM,
		&c.FootWidthLeftMM, &c.FootWidthRightMM,
		&c.ScreeningRef,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}

	return c, nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
