package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplyType отличает каталожную версорунг от приватной (промоутнутой из черновика).
type SupplyType string

const (
	SupplyTypeCatalog SupplyType = "catalog"
	SupplyTypePrivate SupplyType = "private"
)

// Supply — шаблон позиции заказа ("Versorgung"): описание изделия,
// цены и опциональная привязка к складу.
type Supply struct {
	ID           string
	PartnerID    string
	Name         string
	Manufacturer string
	Model        string
	Materials    []string
	// StoreID — склад, с которого резервируется размер; пустая строка,
	// если версорунг не привязана к складу.
	StoreID string
	// Две составляющие цены; итог заказа считается из их суммы.
	PriceMaterial decimal.Decimal
	PriceLabor    decimal.Decimal
	Type          SupplyType
	CreatedAt     time.Time
}

// ShadowSupply — черновик версорунг, живущий только в кэше. Привязан
// к паре партнёр+клиент и истекает по TTL. Потребляется ровно один раз
// при успешном создании заказа.
type ShadowSupply struct {
	Key          string
	PartnerID    string
	CustomerID   string
	Name         string
	Manufacturer string
	Model        string
	Materials    []string
	StoreID      string
	PriceMaterial decimal.Decimal
	PriceLabor    decimal.Decimal
	ExpiresAt     time.Time
}

// Expired сообщает, истёк ли черновик к моменту now.
func (s *ShadowSupply) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ToSupply строит персистентную версорунг из черновика. Идентификатор
// назначает вызывающая сторона.
func (s *ShadowSupply) ToSupply(id string, now time.Time) Supply {
	return Supply{
		ID:            id,
		PartnerID:     s.PartnerID,
		Name:          s.Name,
		Manufacturer:  s.Manufacturer,
		Model:         s.Model,
		Materials:     append([]string(nil), s.Materials...),
		StoreID:       s.StoreID,
		PriceMaterial: s.PriceMaterial,
		PriceLabor:    s.PriceLabor,
		Type:          SupplyTypePrivate,
		CreatedAt:     now,
	}
}
