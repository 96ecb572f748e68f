package domain

import "sort"

// StoreType выбирает алгоритм подбора размера для склада.
type StoreType string

const (
	// StoreTypeInsole — склад стелек: подбор по ближайшей длине.
	StoreTypeInsole StoreType = "insole"
	// StoreTypeBlock — склад блоков: подбор по диапазону [min, max).
	StoreTypeBlock StoreType = "block"
)

// SizeEntry — одна ячейка карты размеров. Для складов стелек значима
// LengthMM, для блоков — границы MinMM/MaxMM. Отсутствующие значения
// представлены nil.
type SizeEntry struct {
	LengthMM *float64 `json:"length,omitempty"`
	MinMM    *float64 `json:"min_mm,omitempty"`
	MaxMM    *float64 `json:"max_mm,omitempty"`
	Quantity int      `json:"quantity"`
}

// Store — физический склад партнёра с картой размеров.
type Store struct {
	ID        string
	PartnerID string
	Name      string
	Type      StoreType
	Sizes     map[string]SizeEntry
}

// SortedSizeLabels возвращает ярлыки карты размеров в стабильном
// порядке. Подбор размера обязан быть детерминированным, а порядок
// обхода map в Go — нет.
func SortedSizeLabels(sizes map[string]SizeEntry) []string {
	labels := make([]string, 0, len(sizes))
	for label := range sizes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
