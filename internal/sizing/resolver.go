// Package sizing реализует чистые алгоритмы подбора размера по карте
// склада. Функции не читают количество и ничего не мутируют: проверка
// остатка — забота вызывающего после выбора ярлыка.
package sizing

import (
	"fmt"
	"math"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

const (
	// AllowanceMM — фиксированный припуск к длине стопы для стелек.
	AllowanceMM = 5.0
	// ToleranceMM — максимально допустимое отклонение подобранной длины от цели.
	ToleranceMM = 10.0
)

// Дефолтные диапазоны блоков для ярлыков без явных границ.
var defaultBlockRanges = map[string][2]float64{
	"1": {0, 200},
	"2": {200, 250},
	"3": {250, math.Inf(1)},
}

// Match — результат подбора: ярлык и длина, по которой он был выбран.
type Match struct {
	Label    string
	LengthMM float64
}

// Resolve подбирает размер для клиента по типу склада. Для складов
// стелек цель — большая из длин стопы плюс припуск, для блоков — сырая
// длина без припуска.
func Resolve(store domain.Store, customer domain.Customer) (Match, error) {
	switch store.Type {
	case domain.StoreTypeInsole:
		return ResolveInsole(store.Sizes, customer.MaxFootLengthMM()+AllowanceMM)
	case domain.StoreTypeBlock:
		return ResolveBlock(store.Sizes, customer.MaxFootLengthMM())
	default:
		return Match{}, fmt.Errorf("unknown store type %q: %w", store.Type, domain.ErrNoMatchingSize)
	}
}

// ResolveInsole находит ярлык с минимальным |target − length| среди
// ячеек с заполненной длиной. При равных отклонениях побеждает первый
// ярлык в стабильном порядке обхода. Кандидат дальше допуска — отказ с
// диагностикой ближайших доступных длин, а не совпадение.
func ResolveInsole(sizes map[string]domain.SizeEntry, targetMM float64) (Match, error) {
	var (
		best     Match
		bestDiff = math.Inf(1)
		found    bool
	)

	for _, label := range domain.SortedSizeLabels(sizes) {
		entry := sizes[label]
		if entry.LengthMM == nil {
			continue
		}
		diff := math.Abs(targetMM - *entry.LengthMM)
		if diff < bestDiff {
			best = Match{Label: label, LengthMM: *entry.LengthMM}
			bestDiff = diff
			found = true
		}
	}

	if !found {
		return Match{}, domain.ErrNoMatchingSize
	}
	if bestDiff > ToleranceMM {
		return Match{}, &domain.ToleranceError{
			TargetMM:       targetMM,
			RejectedLabel:  best.Label,
			RejectedMM:     best.LengthMM,
			NearestLowerMM: nearestLower(sizes, targetMM),
			NearestUpperMM: nearestUpper(sizes, targetMM),
		}
	}

	return best, nil
}

// ResolveBlock возвращает первый ярлык, чей полуинтервал [min, max)
// содержит длину. Ячейки без границ берут дефолтные диапазоны ярлыков
// "1"/"2"/"3"; прочие ярлыки без обеих границ пропускаются.
func ResolveBlock(sizes map[string]domain.SizeEntry, lengthMM float64) (Match, error) {
	for _, label := range domain.SortedSizeLabels(sizes) {
		minMM, maxMM, ok := blockRange(label, sizes[label])
		if !ok {
			continue
		}
		if lengthMM >= minMM && lengthMM < maxMM {
			return Match{Label: label, LengthMM: lengthMM}, nil
		}
	}
	return Match{}, domain.ErrNoMatchingSize
}

func blockRange(label string, entry domain.SizeEntry) (minMM, maxMM float64, ok bool) {
	defaults, hasDefaults := defaultBlockRanges[label]
	switch {
	case entry.MinMM != nil:
		minMM = *entry.MinMM
	case hasDefaults:
		minMM = defaults[0]
	default:
		return 0, 0, false
	}
	switch {
	case entry.MaxMM != nil:
		maxMM = *entry.MaxMM
	case hasDefaults:
		maxMM = defaults[1]
	default:
		return 0, 0, false
	}
	return minMM, maxMM, true
}

// nearestLower возвращает максимальную длину строго меньше цели; nil, если такой нет.
func nearestLower(sizes map[string]domain.SizeEntry, targetMM float64) *float64 {
	var result *float64
	for _, entry := range sizes {
		if entry.LengthMM == nil || *entry.LengthMM >= targetMM {
			continue
		}
		if result == nil || *entry.LengthMM > *result {
			v := *entry.LengthMM
			result = &v
		}
	}
	return result
}

// nearestUpper возвращает минимальную длину строго больше цели; nil, если такой нет.
func nearestUpper(sizes map[string]domain.SizeEntry, targetMM float64) *float64 {
	var result *float64
	for _, entry := range sizes {
		if entry.LengthMM == nil || *entry.LengthMM <= targetMM {
			continue
		}
		if result == nil || *entry.LengthMM < *result {
			v := *entry.LengthMM
			result = &v
		}
	}
	return result
}
