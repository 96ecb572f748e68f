package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики конвейера создания заказов.
type OrderMetrics struct {
	// Счётчики результатов создания заказа
	ordersCreated prometheus.Counter
	orderFailures *prometheus.CounterVec

	// Отказы подбора размера по причинам
	sizingRejections *prometheus.CounterVec

	// Гистограмма времени создания заказа
	orderDuration prometheus.Histogram

	// Промоушены shadow-версорунг
	shadowPromoted prometheus.Counter
}

// NewOrderMetrics создаёт метрики конвейера заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "insole_orders_created_total",
			Help: "Total number of successfully created orders",
		}),
		orderFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "insole_order_failures_total",
			Help: "Total number of rejected order creations grouped by reason",
		}, []string{"reason"}),
		sizingRejections: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "insole_sizing_rejections_total",
			Help: "Total number of sizing rejections grouped by kind",
		}, []string{"kind"}),
		orderDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "insole_order_creation_duration_seconds",
			Help:    "Duration of order creation requests in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		shadowPromoted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "insole_shadow_supplies_promoted_total",
			Help: "Total number of shadow supplies promoted into persistent ones",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик успешных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderFailure увеличивает счётчик отказов по причине.
func (m *OrderMetrics) RecordOrderFailure(reason string) {
	m.orderFailures.WithLabelValues(reason).Inc()
}

// RecordSizingRejection увеличивает счётчик отказов подбора размера.
func (m *OrderMetrics) RecordSizingRejection(kind string) {
	m.sizingRejections.WithLabelValues(kind).Inc()
}

// RecordOrderDuration записывает время создания заказа.
func (m *OrderMetrics) RecordOrderDuration(duration time.Duration) {
	m.orderDuration.Observe(duration.Seconds())
}

// RecordShadowPromoted увеличивает счётчик промоушенов черновиков.
func (m *OrderMetrics) RecordShadowPromoted() {
	m.shadowPromoted.Inc()
}
