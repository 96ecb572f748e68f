package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// StoreHistoryRepository — in-memory append-only аудит движений склада.
type StoreHistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.StoreHistory
}

var _ domain.StoreHistoryRepository = (*StoreHistoryRepository)(nil)

// NewStoreHistoryRepository создаёт пустой аудит склада.
func NewStoreHistoryRepository() *StoreHistoryRepository {
	return &StoreHistoryRepository{}
}

// Append добавляет строку аудита.
func (r *StoreHistoryRepository) Append(h domain.StoreHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, h)
	return nil
}

// ListByStore возвращает строки аудита склада в порядке добавления.
func (r *StoreHistoryRepository) ListByStore(storeID string) ([]domain.StoreHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.StoreHistory
	for _, entry := range r.entries {
		if entry.StoreID == storeID {
			result = append(result, entry)
		}
	}
	return result, nil
}
