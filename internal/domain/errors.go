package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибки валидации запроса (HTTP 400).
	ErrCustomerIDRequired       = errors.New("customer_id is required")
	ErrSupplyReferenceRequired  = errors.New("versorgung_id or shadow supply key is required")
	ErrQuantityInvalid          = errors.New("quantity must be greater than zero")
	ErrDiscountInvalid          = errors.New("discount percent must be between 0 and 100")
	ErrPaymentMethodInvalid     = errors.New("unknown payment method")
	ErrInsuranceItemsRequired   = errors.New("insurance payment requires at least one insurance item")
	ErrInsuranceItemEmpty       = errors.New("insurance item must carry a price or a description")
	ErrVATCountryMissing        = errors.New("partner has no VAT country configured")
	ErrInsoleStandardNameEmpty  = errors.New("insole standard entry requires a name")
	ErrInsoleStandardValueInvalid = errors.New("insole standard value is not numeric")
	ErrFootLengthsMissing       = errors.New("customer foot length readings are missing")

	// Ошибки отсутствия сущностей (HTTP 404).
	ErrPartnerNotFound      = errors.New("partner not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrSupplyNotFound       = errors.New("supply not found")
	ErrStoreNotFound        = errors.New("store not found")
	ErrOrderNotFound        = errors.New("order not found")
	// ErrShadowSupplyNotFound покрывает и истёкший черновик, и черновик
	// чужого партнёра/клиента: для вызывающего это одно и то же.
	ErrShadowSupplyNotFound = errors.New("shadow supply not found or expired")

	// Конфликты подбора размера (HTTP 400).
	ErrNoMatchingSize        = errors.New("no matching size in store")
	ErrSizeToleranceExceeded = errors.New("matched size is outside length tolerance")
	ErrSizeOutOfStock        = errors.New("matched size is out of stock")

	// Конфликты хранилища (HTTP 400): нарушения уникальности и внешних ключей.
	ErrPersistenceConflict = errors.New("persistence conflict")
)

// ToleranceError детализирует отказ по допуску длины: длина
// отклонённого кандидата и ближайшие доступные длины ниже/выше цели
// для диагностического сообщения.
type ToleranceError struct {
	TargetMM       float64
	RejectedLabel  string
	RejectedMM     float64
	NearestLowerMM *float64
	NearestUpperMM *float64
}

func (e *ToleranceError) Error() string {
	msg := fmt.Sprintf("no size within tolerance: target %.0fmm, nearest candidate %q at %.0fmm",
		e.TargetMM, e.RejectedLabel, e.RejectedMM)
	if e.NearestLowerMM != nil {
		msg += fmt.Sprintf(", nearest lower %.0fmm", *e.NearestLowerMM)
	}
	if e.NearestUpperMM != nil {
		msg += fmt.Sprintf(", nearest upper %.0fmm", *e.NearestUpperMM)
	}
	return msg
}

func (e *ToleranceError) Unwrap() error { return ErrSizeToleranceExceeded }

// IsValidation относит ошибку к классу 400-валидации.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrCustomerIDRequired, ErrSupplyReferenceRequired, ErrQuantityInvalid,
		ErrDiscountInvalid, ErrPaymentMethodInvalid, ErrInsuranceItemsRequired,
		ErrInsuranceItemEmpty, ErrVATCountryMissing, ErrInsoleStandardNameEmpty,
		ErrInsoleStandardValueInvalid, ErrFootLengthsMissing,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound относит ошибку к классу 404.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrPartnerNotFound, ErrCustomerNotFound, ErrSupplyNotFound,
		ErrStoreNotFound, ErrOrderNotFound, ErrShadowSupplyNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsSizingConflict относит ошибку к конфликтам подбора размера.
func IsSizingConflict(err error) bool {
	return errors.Is(err, ErrNoMatchingSize) ||
		errors.Is(err, ErrSizeToleranceExceeded) ||
		errors.Is(err, ErrSizeOutOfStock)
}

// IsPersistenceConflict проверяет конфликт уникальности/ссылочной целостности.
func IsPersistenceConflict(err error) bool {
	return errors.Is(err, ErrPersistenceConflict)
}
