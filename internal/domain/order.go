package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod — способ оплаты заказа.
type PaymentMethod string

const (
	PaymentMethodSelfPay        PaymentMethod = "self_pay"
	PaymentMethodInvoice        PaymentMethod = "invoice"
	PaymentMethodInsurance      PaymentMethod = "insurance"
	PaymentMethodInsuranceCopay PaymentMethod = "insurance_copay"
)

// ParsePaymentMethod проверяет строку против закрытого перечня способов оплаты.
func ParsePaymentMethod(v string) (PaymentMethod, error) {
	switch PaymentMethod(v) {
	case PaymentMethodSelfPay, PaymentMethodInvoice, PaymentMethodInsurance, PaymentMethodInsuranceCopay:
		return PaymentMethod(v), nil
	default:
		return "", ErrPaymentMethodInvalid
	}
}

// Insurance сообщает, расчитывается ли способ оплаты через страховую кассу.
func (m PaymentMethod) Insurance() bool {
	return m == PaymentMethodInsurance || m == PaymentMethodInsuranceCopay
}

// OrderKind разделяет счётчики номеров: стельки и родственные заказы
// на колодки ведутся в разных диапазонах.
type OrderKind string

const (
	OrderKindInsole OrderKind = "insole"
	OrderKindShaft  OrderKind = "shaft"
)

// Order — принятый заказ клиента. После создания изменяется только
// внешними операциями смены статуса.
type Order struct {
	ID         string
	Number     int64
	Kind       OrderKind
	PartnerID  string
	CustomerID string
	SupplyID   string
	// StoreID и SizeLabel заполнены, только если версорунг привязана к
	// складу и размер был подобран при валидации.
	StoreID         string
	SizeLabel       string
	Quantity        int
	DiscountPercent float64
	TotalPrice      decimal.Decimal
	PaymentMethod   PaymentMethod
	EmployeeID      string
	StoreLocation   string
	CreatedAt       time.Time
}

// ProductSnapshot — денормализованная копия описательных полей
// версорунг на момент создания заказа. Принадлежит заказу и после
// создания не изменяется.
type ProductSnapshot struct {
	ID           string
	OrderID      string
	SupplyID     string
	Name         string
	Manufacturer string
	Model        string
	Materials    []string
	// Standards — стандартные позиции стельки, зафиксированные при
	// создании заказа.
	Standards     []InsoleStandard
	PriceMaterial decimal.Decimal
	PriceLabor    decimal.Decimal
	CreatedAt     time.Time
}

// InsuranceItem — строка страхового расчёта, привязанная к заказу.
type InsuranceItem struct {
	ID          string
	OrderID     string
	Description string
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// InsoleStandard — стандартная позиция стельки с парой числовых
// значений (левая/правая).
type InsoleStandard struct {
	Name  string
	Left  float64
	Right float64
}

// TotalPrice считает итог заказа: (материал + работа) × количество ×
// (1 − скидка%), округлённый до двух знаков.
func TotalPrice(priceMaterial, priceLabor decimal.Decimal, quantity int, discountPercent float64) decimal.Decimal {
	qty := decimal.NewFromInt(int64(quantity))
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discountPercent).Div(decimal.NewFromInt(100)))
	return priceMaterial.Add(priceLabor).Mul(qty).Mul(factor).Round(2)
}
