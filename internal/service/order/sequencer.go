package order

import (
	"fmt"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

// Нижние границы счётчиков номеров заказов.
const (
	insoleNumberFloor = int64(1000)
	shaftNumberFloor  = int64(10000)
)

// NumberSequencer выделяет следующий номер заказа в рамках партнёра.
//
// Реализация читает текущий максимум и прибавляет единицу без
// блокировки: два конкурентных создания заказа одного партнёра могут
// получить одинаковый номер. Это известная слабость исходной системы,
// воспроизведённая намеренно; уникальность гарантируется только при
// сериализованных вызовах.
type NumberSequencer struct {
	orders domain.OrderRepository
}

// NewNumberSequencer создаёт секвенсер поверх репозитория заказов.
func NewNumberSequencer(orders domain.OrderRepository) *NumberSequencer {
	return &NumberSequencer{orders: orders}
}

// Next возвращает следующий номер для партнёра в рамках счётчика kind:
// max+1, либо нижнюю границу счётчика, если заказов ещё нет.
func (s *NumberSequencer) Next(partnerID string, kind domain.OrderKind) (int64, error) {
	max, err := s.orders.MaxOrderNumber(partnerID, kind)
	if err != nil {
		return 0, fmt.Errorf("read max order number for partner %s: %w", partnerID, err)
	}

	floor := insoleNumberFloor
	if kind == domain.OrderKindShaft {
		floor = shaftNumberFloor
	}

	if max < floor {
		return floor, nil
	}
	return max + 1, nil
}
