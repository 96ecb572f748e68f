package domain

import (
	"context"
	"time"
)

// CustomerRepository читает клиентов; мутации выполняет внешний CRUD.
type CustomerRepository interface {
	// Get возвращает клиента или ErrCustomerNotFound.
	Get(id string) (Customer, error)
}

// PartnerRepository читает партнёров.
type PartnerRepository interface {
	// Get возвращает партнёра или ErrPartnerNotFound.
	Get(id string) (Partner, error)
}

// SupplyRepository читает персистентные версорунг. Создание приватной
// версорунг происходит только внутри бандла заказа.
type SupplyRepository interface {
	// Get возвращает версорунг или ErrSupplyNotFound.
	Get(id string) (Supply, error)
}

// StoreRepository читает склады и применяет декремент остатка.
type StoreRepository interface {
	// Get возвращает склад или ErrStoreNotFound.
	Get(id string) (Store, error)
	// DecrementSize атомарно уменьшает остаток ярлыка на единицу и
	// возвращает новый остаток. Никогда не уводит количество ниже нуля:
	// при остатке 0 возвращает ErrSizeOutOfStock, при неизвестном ярлыке —
	// ErrNoMatchingSize.
	DecrementSize(storeID, label string) (int, error)
}

// StoreHistoryRepository хранит append-only аудит движений склада.
type StoreHistoryRepository interface {
	Append(h StoreHistory) error
	ListByStore(storeID string) ([]StoreHistory, error)
}

// OrderBundle — полный набор строк, создаваемых одним заказом. Пишется
// атомарно: либо все строки, либо ни одной.
type OrderBundle struct {
	Order           Order
	Snapshot        ProductSnapshot
	OrderHistory    []OrderHistory
	CustomerHistory []CustomerHistory
	Insurance       []InsuranceItem
	// PromotedSupply — приватная версорунг, созданная из черновика в
	// рамках той же транзакции; nil для каталожных версорунг.
	PromotedSupply *Supply
}

// OrderRepository хранит заказы и связанные с ними строки.
type OrderRepository interface {
	// CreateBundle сохраняет заказ со всеми связанными строками в одной
	// транзакции.
	CreateBundle(bundle OrderBundle) error
	// Get возвращает заказ или ErrOrderNotFound.
	Get(id string) (Order, error)
	GetSnapshot(orderID string) (ProductSnapshot, error)
	ListHistory(orderID string) ([]OrderHistory, error)
	ListInsurance(orderID string) ([]InsuranceItem, error)
	// MaxOrderNumber возвращает максимальный номер заказа партнёра в
	// рамках счётчика kind; 0, если заказов ещё нет.
	MaxOrderNumber(partnerID string, kind OrderKind) (int64, error)
}

// ShadowSupplyCache — эфемерное KV-хранилище черновиков версорунг.
type ShadowSupplyCache interface {
	// Get возвращает черновик по ключу; истёкший или отсутствующий ключ —
	// ErrShadowSupplyNotFound.
	Get(key string) (ShadowSupply, error)
	// Set сохраняет черновик с TTL.
	Set(shadow ShadowSupply, ttl time.Duration) error
	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(key string) error
	// DeleteExpired удаляет записи с истёкшим TTL порциями limit.
	DeleteExpired(before time.Time, limit int) (int, error)
}

// Task — отложенная единица работы.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// TaskQueue запускает задачи после завершения текущего запроса.
// Контракт: ошибки задач логируются и никогда не влияют на уже
// зафиксированный заказ; постановка в очередь не блокирует вызывающего.
type TaskQueue interface {
	Enqueue(task Task)
}
