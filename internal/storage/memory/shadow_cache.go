package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// ShadowSupplyCache — in-memory TTL-кэш черновиков версорунг. Истёкшие
// записи невидимы для Get сразу, физически удаляются воркером очистки.
type ShadowSupplyCache struct {
	mu      sync.Mutex
	shadows map[string]domain.ShadowSupply
	now     func() time.Time
}

var _ domain.ShadowSupplyCache = (*ShadowSupplyCache)(nil)

// NewShadowSupplyCache создаёт пустой кэш черновиков.
func NewShadowSupplyCache() *ShadowSupplyCache {
	return &ShadowSupplyCache{
		shadows: make(map[string]domain.ShadowSupply),
		now:     time.Now,
	}
}

// Get возвращает черновик по ключу. Истёкший или отсутствующий ключ
// неразличимы: в обоих случаях ErrShadowSupplyNotFound.
func (c *ShadowSupplyCache) Get(key string) (domain.ShadowSupply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	shadow, ok := c.shadows[key]
	if !ok || shadow.Expired(c.now().UTC()) {
		return domain.ShadowSupply{}, domain.ErrShadowSupplyNotFound
	}
	return shadow, nil
}

// Set сохраняет черновик с TTL. Неположительный TTL оставляет срок из
// самого черновика.
func (c *ShadowSupplyCache) Set(shadow domain.ShadowSupply, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl > 0 {
		shadow.ExpiresAt = c.now().UTC().Add(ttl)
	}
	c.shadows[shadow.Key] = shadow
	return nil
}

// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
func (c *ShadowSupplyCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.shadows, key)
	return nil
}

// DeleteExpired удаляет до limit записей, истёкших к моменту before.
func (c *ShadowSupplyCache) DeleteExpired(before time.Time, limit int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for key, shadow := range c.shadows {
		if limit > 0 && deleted >= limit {
			break
		}
		if shadow.Expired(before) {
			delete(c.shadows, key)
			deleted++
		}
	}
	return deleted, nil
}
