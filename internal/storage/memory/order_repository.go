package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// OrderRepository — in-memory хранилище заказов и связанных строк.
// Бандл применяется под одним мьютексом, так что частичная запись
// невозможна даже при конкурентных вызовах.
type OrderRepository struct {
	mu        sync.RWMutex
	orders    map[string]domain.Order
	snapshots map[string]domain.ProductSnapshot
	history   map[string][]domain.OrderHistory
	insurance map[string][]domain.InsuranceItem
	customers map[string][]domain.CustomerHistory

	// supplies принимает приватные версорунг, создаваемые бандлом.
	supplies *SupplyRepository
}

var _ domain.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository создаёт хранилище заказов. supplies может быть nil,
// если промоушен черновиков не используется.
func NewOrderRepository(supplies *SupplyRepository) *OrderRepository {
	return &OrderRepository{
		orders:    make(map[string]domain.Order),
		snapshots: make(map[string]domain.ProductSnapshot),
		history:   make(map[string][]domain.OrderHistory),
		insurance: make(map[string][]domain.InsuranceItem),
		customers: make(map[string][]domain.CustomerHistory),
		supplies:  supplies,
	}
}

// CreateBundle сохраняет заказ со всеми связанными строками атомарно.
func (r *OrderRepository) CreateBundle(bundle domain.OrderBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[bundle.Order.ID]; exists {
		return domain.ErrPersistenceConflict
	}

	if bundle.PromotedSupply != nil {
		if r.supplies == nil {
			return domain.ErrPersistenceConflict
		}
		r.supplies.Put(*bundle.PromotedSupply)
	}

	r.orders[bundle.Order.ID] = bundle.Order
	r.snapshots[bundle.Order.ID] = bundle.Snapshot
	r.history[bundle.Order.ID] = append([]domain.OrderHistory(nil), bundle.OrderHistory...)
	r.insurance[bundle.Order.ID] = append([]domain.InsuranceItem(nil), bundle.Insurance...)
	for _, entry := range bundle.CustomerHistory {
		r.customers[entry.CustomerID] = append(r.customers[entry.CustomerID], entry)
	}
	return nil
}

// Get возвращает заказ или ErrOrderNotFound.
func (r *OrderRepository) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ord, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return ord, nil
}

// GetSnapshot возвращает снапшот изделия заказа.
func (r *OrderRepository) GetSnapshot(orderID string) (domain.ProductSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, ok := r.snapshots[orderID]
	if !ok {
		return domain.ProductSnapshot{}, domain.ErrOrderNotFound
	}
	return snapshot, nil
}

// ListHistory возвращает записи истории заказа в порядке добавления.
func (r *OrderRepository) ListHistory(orderID string) ([]domain.OrderHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.OrderHistory(nil), r.history[orderID]...), nil
}

// ListInsurance возвращает страховые строки заказа.
func (r *OrderRepository) ListInsurance(orderID string) ([]domain.InsuranceItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.InsuranceItem(nil), r.insurance[orderID]...), nil
}

// ListCustomerHistory возвращает записи истории клиента.
func (r *OrderRepository) ListCustomerHistory(customerID string) ([]domain.CustomerHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.CustomerHistory(nil), r.customers[customerID]...), nil
}

// MaxOrderNumber возвращает максимальный номер заказа партнёра в рамках
// счётчика kind; 0, если заказов нет.
func (r *OrderRepository) MaxOrderNumber(partnerID string, kind domain.OrderKind) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var max int64
	for _, ord := range r.orders {
		if ord.PartnerID == partnerID && ord.Kind == kind && ord.Number > max {
			max = ord.Number
		}
	}
	return max, nil
}
