package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// SupplyRepository — in-memory хранилище версорунг. Приватные версорунг
// попадают сюда через бандл заказа, каталожные — через Put при посеве.
type SupplyRepository struct {
	mu       sync.RWMutex
	supplies map[string]domain.Supply
}

var _ domain.SupplyRepository = (*SupplyRepository)(nil)

// NewSupplyRepository создаёт пустое хранилище версорунг.
func NewSupplyRepository() *SupplyRepository {
	return &SupplyRepository{supplies: make(map[string]domain.Supply)}
}

// Put сохраняет версорунг (создание или замена).
func (r *SupplyRepository) Put(s domain.Supply) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supplies[s.ID] = s
}

// Get возвращает версорунг или ErrSupplyNotFound.
func (r *SupplyRepository) Get(id string) (domain.Supply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.supplies[id]
	if !ok {
		return domain.Supply{}, domain.ErrSupplyNotFound
	}
	return s, nil
}
