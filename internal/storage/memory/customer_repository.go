// Package memory содержит потокобезопасные in-memory реализации
// репозиториев. Используются в тестах и при запуске сервиса без БД.
package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// CustomerRepository — in-memory хранилище клиентов.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
}

var _ domain.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository создаёт пустое хранилище клиентов.
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{customers: make(map[string]domain.Customer)}
}

// Put сохраняет клиента (создание или замена).
func (r *CustomerRepository) Put(c domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = c
}

// Get возвращает клиента или ErrCustomerNotFound.
func (r *CustomerRepository) Get(id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, nil
}
