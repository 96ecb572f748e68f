package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// StoreRepository — in-memory хранилище складов.
type StoreRepository struct {
	mu     sync.Mutex
	stores map[string]domain.Store
}

var _ domain.StoreRepository = (*StoreRepository)(nil)

// NewStoreRepository создаёт пустое хранилище складов.
func NewStoreRepository() *StoreRepository {
	return &StoreRepository{stores: make(map[string]domain.Store)}
}

// Put сохраняет склад (создание или замена).
func (r *StoreRepository) Put(s domain.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.ID] = s
}

// Get возвращает копию склада или ErrStoreNotFound. Карта размеров
// копируется, чтобы читатель не видел конкурентных декрементов.
func (r *StoreRepository) Get(id string) (domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[id]
	if !ok {
		return domain.Store{}, domain.ErrStoreNotFound
	}

	copied := s
	copied.Sizes = make(map[string]domain.SizeEntry, len(s.Sizes))
	for label, entry := range s.Sizes {
		copied.Sizes[label] = entry
	}
	return copied, nil
}

// DecrementSize атомарно уменьшает остаток ярлыка на единицу. Остаток
// никогда не уходит ниже нуля.
func (r *StoreRepository) DecrementSize(storeID, label string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[storeID]
	if !ok {
		return 0, domain.ErrStoreNotFound
	}

	entry, ok := s.Sizes[label]
	if !ok {
		return 0, domain.ErrNoMatchingSize
	}
	if entry.Quantity < 1 {
		return 0, domain.ErrSizeOutOfStock
	}

	entry.Quantity--
	s.Sizes[label] = entry
	return entry.Quantity, nil
}
