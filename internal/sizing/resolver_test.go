package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func insoleSizes() map[string]domain.SizeEntry {
	return map[string]domain.SizeEntry{
		"35": {LengthMM: fptr(225), Quantity: 5},
		"36": {LengthMM: fptr(230), Quantity: 2},
	}
}

func TestResolveInsole_NearestMatch(t *testing.T) {
	tests := []struct {
		name      string
		sizes     map[string]domain.SizeEntry
		targetMM  float64
		wantLabel string
	}{
		{
			name:      "exact match",
			sizes:     insoleSizes(),
			targetMM:  225,
			wantLabel: "35",
		},
		{
			name:      "nearest within tolerance",
			sizes:     insoleSizes(),
			targetMM:  228,
			wantLabel: "36",
		},
		{
			name: "tie resolves to first label in stable order",
			sizes: map[string]domain.SizeEntry{
				"40": {LengthMM: fptr(260)},
				"41": {LengthMM: fptr(270)},
			},
			targetMM:  265,
			wantLabel: "40",
		},
		{
			name: "entries without length are skipped",
			sizes: map[string]domain.SizeEntry{
				"x":  {Quantity: 9},
				"36": {LengthMM: fptr(230)},
			},
			targetMM:  230,
			wantLabel: "36",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := ResolveInsole(tt.sizes, tt.targetMM)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if match.Label != tt.wantLabel {
				t.Errorf("expected label %q, got %q", tt.wantLabel, match.Label)
			}
		})
	}
}

func TestResolveInsole_GlobalMinimumProperty(t *testing.T) {
	sizes := map[string]domain.SizeEntry{
		"34": {LengthMM: fptr(220)},
		"35": {LengthMM: fptr(225)},
		"36": {LengthMM: fptr(230)},
		"37": {LengthMM: fptr(235)},
	}

	for target := 215.0; target <= 240; target++ {
		match, err := ResolveInsole(sizes, target)
		if err != nil {
			continue
		}
		got := math.Abs(target - match.LengthMM)
		for _, entry := range sizes {
			if diff := math.Abs(target - *entry.LengthMM); diff < got {
				t.Fatalf("target %.0f: label %q has diff %.1f, resolver picked diff %.1f", target, match.Label, diff, got)
			}
		}
	}
}

func TestResolveInsole_ToleranceExceeded(t *testing.T) {
	// Scenario B: target 245, nearest candidate "36" at 230, distance 15 > 10.
	_, err := ResolveInsole(insoleSizes(), 245)
	if !errors.Is(err, domain.ErrSizeToleranceExceeded) {
		t.Fatalf("expected tolerance error, got %v", err)
	}

	var tolErr *domain.ToleranceError
	if !errors.As(err, &tolErr) {
		t.Fatalf("expected *domain.ToleranceError, got %T", err)
	}
	if tolErr.RejectedLabel != "36" || tolErr.RejectedMM != 230 {
		t.Errorf("expected rejected candidate 36@230, got %q@%.0f", tolErr.RejectedLabel, tolErr.RejectedMM)
	}
	if tolErr.NearestLowerMM == nil || *tolErr.NearestLowerMM != 230 {
		t.Errorf("expected nearest lower 230, got %v", tolErr.NearestLowerMM)
	}
	if tolErr.NearestUpperMM != nil {
		t.Errorf("expected no nearest upper, got %v", *tolErr.NearestUpperMM)
	}
}

func TestResolveInsole_EmptyMap(t *testing.T) {
	_, err := ResolveInsole(map[string]domain.SizeEntry{}, 225)
	if !errors.Is(err, domain.ErrNoMatchingSize) {
		t.Fatalf("expected ErrNoMatchingSize, got %v", err)
	}
}

func TestResolveBlock_DefaultRanges(t *testing.T) {
	sizes := map[string]domain.SizeEntry{
		"1": {Quantity: 3},
		"2": {Quantity: 3},
		"3": {Quantity: 3},
	}

	tests := []struct {
		lengthMM  float64
		wantLabel string
	}{
		// Scenario C.
		{180, "1"},
		{260, "3"},
		// Half-open boundaries: 200 belongs to "2", 250 to "3".
		{200, "2"},
		{250, "3"},
		{0, "1"},
	}

	for _, tt := range tests {
		match, err := ResolveBlock(sizes, tt.lengthMM)
		if err != nil {
			t.Fatalf("length %.0f: unexpected error: %v", tt.lengthMM, err)
		}
		if match.Label != tt.wantLabel {
			t.Errorf("length %.0f: expected label %q, got %q", tt.lengthMM, tt.wantLabel, match.Label)
		}
	}
}

func TestResolveBlock_ExplicitBoundsWinOverDefaults(t *testing.T) {
	sizes := map[string]domain.SizeEntry{
		"1": {MinMM: fptr(0), MaxMM: fptr(150)},
		"2": {MinMM: fptr(150), MaxMM: fptr(300)},
	}

	match, err := ResolveBlock(sizes, 180)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Label != "2" {
		t.Errorf("expected label 2, got %q", match.Label)
	}
}

func TestResolveBlock_NoMatch(t *testing.T) {
	sizes := map[string]domain.SizeEntry{
		"1": {MinMM: fptr(0), MaxMM: fptr(200)},
	}
	if _, err := ResolveBlock(sizes, 220); !errors.Is(err, domain.ErrNoMatchingSize) {
		t.Fatalf("expected ErrNoMatchingSize, got %v", err)
	}

	// Ярлык без дефолтов и без границ не матчится никогда.
	if _, err := ResolveBlock(map[string]domain.SizeEntry{"xl": {Quantity: 5}}, 220); !errors.Is(err, domain.ErrNoMatchingSize) {
		t.Fatalf("expected ErrNoMatchingSize for unbounded label, got %v", err)
	}
}

func TestResolveBlock_OverlapFirstWins(t *testing.T) {
	sizes := map[string]domain.SizeEntry{
		"1": {MinMM: fptr(0), MaxMM: fptr(260)},
		"2": {MinMM: fptr(200), MaxMM: fptr(250)},
	}
	match, err := ResolveBlock(sizes, 210)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Label != "1" {
		t.Errorf("expected first matching label 1, got %q", match.Label)
	}
}

func TestResolve_DispatchByStoreType(t *testing.T) {
	customer := domain.Customer{FootLengthLeftMM: 220, FootLengthRightMM: 218}

	// Scenario A: insole store, target 220+5=225 -> "35".
	insole := domain.Store{Type: domain.StoreTypeInsole, Sizes: insoleSizes()}
	match, err := Resolve(insole, customer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Label != "35" {
		t.Errorf("expected label 35, got %q", match.Label)
	}

	// Block store uses the raw length 220, no allowance -> "2".
	block := domain.Store{Type: domain.StoreTypeBlock, Sizes: map[string]domain.SizeEntry{
		"1": {}, "2": {}, "3": {},
	}}
	match, err = Resolve(block, customer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Label != "2" {
		t.Errorf("expected label 2, got %q", match.Label)
	}

	// Неизвестный тип склада не должен молча проваливаться.
	if _, err := Resolve(domain.Store{Type: "warehouse"}, customer); err == nil {
		t.Fatal("expected error for unknown store type")
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	store := domain.Store{Type: domain.StoreTypeInsole, Sizes: insoleSizes()}
	customer := domain.Customer{FootLengthLeftMM: 221, FootLengthRightMM: 223}

	first, err := Resolve(store, customer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 50; i++ {
		next, err := Resolve(store, customer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next != first {
			t.Fatalf("resolver is not deterministic: %v vs %v", first, next)
		}
	}
}
