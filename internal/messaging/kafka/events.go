package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События заказов
	EventTypeOrderCreated EventType = "order.created"

	// События склада
	EventTypeStockReserved           EventType = "stock.reserved"
	EventTypeStockReservationSkipped EventType = "stock.reservation_skipped"
)

// Topics для Kafka
const (
	TopicOrderEvents = "insole.order.events"
	TopicStockEvents = "insole.stock.events"
)

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType  EventType              `json:"event_type"`
	OrderID    string                 `json:"order_id"`
	PartnerID  string                 `json:"partner_id"`
	CustomerID string                 `json:"customer_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// StockEvent представляет событие движения остатка склада
type StockEvent struct {
	EventType EventType `json:"event_type"`
	StoreID   string    `json:"store_id"`
	OrderID   string    `json:"order_id"`
	SizeLabel string    `json:"size_label"`
	NewStock  int       `json:"new_stock"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, partnerID, customerID string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:  eventType,
		OrderID:    orderID,
		PartnerID:  partnerID,
		CustomerID: customerID,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}

// NewStockEvent создает новое событие движения остатка
func NewStockEvent(eventType EventType, storeID, orderID, sizeLabel string, newStock int) *StockEvent {
	return &StockEvent{
		EventType: eventType,
		StoreID:   storeID,
		OrderID:   orderID,
		SizeLabel: sizeLabel,
		NewStock:  newStock,
		Timestamp: time.Now(),
	}
}
