package domain

import "time"

// Типы записей истории заказа.
const (
	OrderHistoryCreated = "order_created"
	OrderHistoryStatus  = "status"
)

// OrderHistory — append-only запись аудита по заказу.
type OrderHistory struct {
	ID        string
	OrderID   string
	Type      string
	Message   string
	CreatedAt time.Time
}

// CustomerHistory — append-only запись аудита по клиенту.
type CustomerHistory struct {
	ID         string
	CustomerID string
	OrderID    string
	Message    string
	CreatedAt  time.Time
}

// StoreHistory — запись аудита склада. Пишется только воркером
// резервирования: одна строка на применённый декремент.
type StoreHistory struct {
	ID         string
	StoreID    string
	OrderID    string
	CustomerID string
	PartnerID  string
	SizeLabel  string
	// Delta — применённое изменение количества (для резервирования всегда -1).
	Delta int
	// NewStock — остаток по ярлыку после применения.
	NewStock  int
	CreatedAt time.Time
}
