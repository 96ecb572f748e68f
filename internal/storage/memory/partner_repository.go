package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// PartnerRepository — in-memory хранилище партнёров.
type PartnerRepository struct {
	mu       sync.RWMutex
	partners map[string]domain.Partner
}

var _ domain.PartnerRepository = (*PartnerRepository)(nil)

// NewPartnerRepository создаёт пустое хранилище партнёров.
func NewPartnerRepository() *PartnerRepository {
	return &PartnerRepository{partners: make(map[string]domain.Partner)}
}

// Put сохраняет партнёра (создание или замена).
func (r *PartnerRepository) Put(p domain.Partner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partners[p.ID] = p
}

// Get возвращает партнёра или ErrPartnerNotFound.
func (r *PartnerRepository) Get(id string) (domain.Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.partners[id]
	if !ok {
		return domain.Partner{}, domain.ErrPartnerNotFound
	}
	return p, nil
}
