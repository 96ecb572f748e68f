package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewOrderMetricsWithRegisterer(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := newOrderMetricsWithRegisterer(registry)
	if m == nil {
		t.Fatal("expected metrics instance")
	}

	// Повторная регистрация в том же registry возвращает существующие
	// коллекторы вместо паники.
	again := newOrderMetricsWithRegisterer(registry)
	if again == nil {
		t.Fatal("expected metrics instance on re-registration")
	}

	m.RecordOrderCreated()
	m.RecordOrderFailure("validation")
	m.RecordSizingRejection("tolerance")
	m.RecordOrderDuration(150 * time.Millisecond)
	m.RecordShadowPromoted()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestNewOrderMetricsNilRegisterer(t *testing.T) {
	if m := newOrderMetricsWithRegisterer(nil); m == nil {
		t.Fatal("nil registerer must fall back to the default one")
	}
}
