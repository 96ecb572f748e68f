package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// CreateBundle пишет заказ со всеми связанными строками в одной
// транзакции. Приватная версорунг из черновика вставляется первой,
// чтобы внешний ключ заказа на неё сошёлся.
func (r *orderRepository) CreateBundle(bundle domain.OrderBundle) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if bundle.PromotedSupply != nil {
		if err = insertSupplyTx(ctx, tx, *bundle.PromotedSupply); err != nil {
			return err
		}
	}

	ord := bundle.Order
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, number, kind, partner_id, customer_id, supply_id,
			store_id, size_label, quantity, discount_percent, total_price,
			payment_method, employee_id, store_location, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		ord.ID, ord.Number, string(ord.Kind), ord.PartnerID, ord.CustomerID, ord.SupplyID,
		nullIfEmpty(ord.StoreID), ord.SizeLabel, ord.Quantity, ord.DiscountPercent, ord.TotalPrice,
		string(ord.PaymentMethod), ord.EmployeeID, ord.StoreLocation, ord.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", mapConstraintErr(err))
	}

	snapshot := bundle.Snapshot
	materials, err := json.Marshal(snapshot.Materials)
	if err != nil {
		return fmt.Errorf("encode snapshot materials: %w", err)
	}
	standards, err := json.Marshal(snapshot.Standards)
	if err != nil {
		return fmt.Errorf("encode snapshot standards: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_snapshots (
			id, order_id, supply_id, name, manufacturer, model,
			materials, standards, price_material, price_labor, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		snapshot.ID, snapshot.OrderID, snapshot.SupplyID, snapshot.Name,
		snapshot.Manufacturer, snapshot.Model, materials, standards,
		snapshot.PriceMaterial, snapshot.PriceLabor, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product snapshot: %w", mapConstraintErr(err))
	}

	for _, entry := range bundle.OrderHistory {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_history (id, order_id, type, message, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, entry.ID, entry.OrderID, entry.Type, entry.Message, entry.CreatedAt); err != nil {
			return fmt.Errorf("insert order history: %w", mapConstraintErr(err))
		}
	}

	for _, entry := range bundle.CustomerHistory {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO customer_history (id, customer_id, order_id, message, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, entry.ID, entry.CustomerID, entry.OrderID, entry.Message, entry.CreatedAt); err != nil {
			return fmt.Errorf("insert customer history: %w", mapConstraintErr(err))
		}
	}

	for _, item := range bundle.Insurance {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO insurance_items (id, order_id, description, price, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, item.ID, item.OrderID, item.Description, item.Price, item.CreatedAt); err != nil {
			return fmt.Errorf("insert insurance item: %w", mapConstraintErr(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order bundle: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		ord           domain.Order
		kind          string
		paymentMethod string
		storeID       sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, number, kind, partner_id, customer_id, supply_id,
		       store_id, size_label, quantity, discount_percent, total_price,
		       payment_method, employee_id, store_location, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&ord.ID, &ord.Number, &kind, &ord.PartnerID, &ord.CustomerID, &ord.SupplyID,
		&storeID, &ord.SizeLabel, &ord.Quantity, &ord.DiscountPercent, &ord.TotalPrice,
		&paymentMethod, &ord.EmployeeID, &ord.StoreLocation, &ord.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	ord.Kind = domain.OrderKind(kind)
	ord.PaymentMethod = domain.PaymentMethod(paymentMethod)
	ord.StoreID = storeID.String

	return ord, nil
}

func (r *orderRepository) GetSnapshot(orderID string) (domain.ProductSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		snapshot     domain.ProductSnapshot
		materialsRaw []byte
		standardsRaw []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, supply_id, name, manufacturer, model,
		       materials, standards, price_material, price_labor, created_at
		FROM product_snapshots
		WHERE order_id = $1
	`, orderID).Scan(
		&snapshot.ID, &snapshot.OrderID, &snapshot.SupplyID, &snapshot.Name,
		&snapshot.Manufacturer, &snapshot.Model, &materialsRaw, &standardsRaw,
		&snapshot.PriceMaterial, &snapshot.PriceLabor, &snapshot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductSnapshot{}, domain.ErrOrderNotFound
		}
		return domain.ProductSnapshot{}, fmt.Errorf("select product snapshot: %w", err)
	}

	if len(materialsRaw) > 0 {
		if err := json.Unmarshal(materialsRaw, &snapshot.Materials); err != nil {
			return domain.ProductSnapshot{}, fmt.Errorf("decode snapshot materials: %w", err)
		}
	}
	if len(standardsRaw) > 0 {
		if err := json.Unmarshal(standardsRaw, &snapshot.Standards); err != nil {
			return domain.ProductSnapshot{}, fmt.Errorf("decode snapshot standards: %w", err)
		}
	}

	return snapshot, nil
}

func (r *orderRepository) ListHistory(orderID string) ([]domain.OrderHistory, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, type, message, created_at
		FROM order_history
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.OrderHistory, 0)
	for rows.Next() {
		var entry domain.OrderHistory
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Type, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order history rows: %w", err)
	}

	return entries, nil
}

func (r *orderRepository) ListInsurance(orderID string) ([]domain.InsuranceItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, description, price, created_at
		FROM insurance_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list insurance items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InsuranceItem, 0)
	for rows.Next() {
		var item domain.InsuranceItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Description, &item.Price, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insurance item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insurance item rows: %w", err)
	}

	return items, nil
}

func (r *orderRepository) MaxOrderNumber(partnerID string, kind domain.OrderKind) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var max int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(number), 0)
		FROM orders
		WHERE partner_id = $1 AND kind = $2
	`, partnerID, string(kind)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("select max order number: %w", err)
	}

	return max, nil
}

func insertSupplyTx(ctx context.Context, tx *sql.Tx, s domain.Supply) error {
	materials, err := json.Marshal(s.Materials)
	if err != nil {
		return fmt.Errorf("encode supply materials: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO supplies (
			id, partner_id, name, manufacturer, model, materials,
			store_id, price_material, price_labor, type, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		s.ID, s.PartnerID, s.Name, s.Manufacturer, s.Model, materials,
		nullIfEmpty(s.StoreID), s.PriceMaterial, s.PriceLabor, string(s.Type), s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert promoted supply: %w", mapConstraintErr(err))
	}
	return nil
}

func nullIfEmpty(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

var _ domain.OrderRepository = (*orderRepository)(nil)
