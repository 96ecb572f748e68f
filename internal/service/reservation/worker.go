// Package reservation реализует отложенное списание остатка склада.
// Воркер стартует только после того, как ответ о создании заказа уже
// отправлен клиенту; его сбои логируются и никогда не откатывают
// зафиксированный заказ — принятие заказа и учёт остатка сознательно
// расходятся под отказами.
package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
	"github.com/vladislavdragonenkov/insole-oms/internal/messaging/kafka"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insole_stock_reservations_total",
		Help: "Total number of deferred stock reservations grouped by result.",
	}, []string{"result"})
)

// Job — задание на списание одной единицы остатка под заказ.
type Job struct {
	OrderID    string
	PartnerID  string
	CustomerID string
	StoreID    string
	SizeLabel  string
}

// WorkerOptions задаёт зависимости воркера.
type WorkerOptions struct {
	Logger   *log.Entry
	Producer *kafka.Producer
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithProducer задаёт опциональный Kafka producer для событий склада.
func WithProducer(producer *kafka.Producer) Option {
	return func(opts *WorkerOptions) {
		opts.Producer = producer
	}
}

// Worker применяет отложенные списания остатка и пишет аудит склада.
type Worker struct {
	stores   domain.StoreRepository
	history  domain.StoreHistoryRepository
	queue    domain.TaskQueue
	producer *kafka.Producer
	logger   *log.Entry
}

// NewWorker создаёт воркер списания остатка.
func NewWorker(
	stores domain.StoreRepository,
	history domain.StoreHistoryRepository,
	queue domain.TaskQueue,
	options ...Option,
) *Worker {
	opts := WorkerOptions{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reservation-worker")
	}

	return &Worker{
		stores:   stores,
		history:  history,
		queue:    queue,
		producer: opts.Producer,
		logger:   logger,
	}
}

// Schedule ставит задание в очередь отложенных задач. Вызывается
// координатором после коммита транзакции заказа; ответ клиенту на это
// задание не ждёт.
func (w *Worker) Schedule(job Job) {
	w.queue.Enqueue(domain.Task{
		Name: "stock-reservation",
		Run: func(ctx context.Context) error {
			return w.Apply(ctx, job)
		},
	})
}

// Apply повторно читает склад, перепроверяет подобранный ярлык и
// списывает ровно одну единицу остатка. Нулевой остаток — не ошибка:
// заказ остаётся действительным, но недообеспеченным; пишется только
// предупреждение в лог, аудит-строка не создаётся.
func (w *Worker) Apply(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := w.logger.WithFields(log.Fields{
		"order_id":   job.OrderID,
		"store_id":   job.StoreID,
		"size_label": job.SizeLabel,
	})

	store, err := w.stores.Get(job.StoreID)
	if err != nil {
		reservationsTotal.WithLabelValues("store_missing").Inc()
		logger.WithError(err).Warn("store disappeared before stock decrement")
		return nil
	}

	entry, ok := store.Sizes[job.SizeLabel]
	if !ok {
		reservationsTotal.WithLabelValues("label_missing").Inc()
		logger.Warn("matched size label no longer present in store map")
		return nil
	}
	if entry.Quantity < 1 {
		reservationsTotal.WithLabelValues("skipped").Inc()
		logger.Warn("matched size already out of stock, skipping decrement")
		w.publishStockEvent(kafka.EventTypeStockReservationSkipped, job, entry.Quantity)
		return nil
	}

	newStock, err := w.stores.DecrementSize(job.StoreID, job.SizeLabel)
	if err != nil {
		if errors.Is(err, domain.ErrSizeOutOfStock) {
			// Конкурентный декремент успел раньше; количество не уходит ниже нуля.
			reservationsTotal.WithLabelValues("skipped").Inc()
			logger.Warn("stock reached zero between re-read and decrement, skipping")
			w.publishStockEvent(kafka.EventTypeStockReservationSkipped, job, 0)
			return nil
		}
		reservationsTotal.WithLabelValues("error").Inc()
		logger.WithError(err).Error("stock decrement failed")
		return fmt.Errorf("decrement size %q of store %s: %w", job.SizeLabel, job.StoreID, err)
	}

	audit := domain.StoreHistory{
		ID:         uuid.NewString(),
		StoreID:    job.StoreID,
		OrderID:    job.OrderID,
		CustomerID: job.CustomerID,
		PartnerID:  job.PartnerID,
		SizeLabel:  job.SizeLabel,
		Delta:      -1,
		NewStock:   newStock,
	}
	if err := w.history.Append(audit); err != nil {
		// Остаток уже списан; потеря аудит-строки мониторится, но не откатывается.
		reservationsTotal.WithLabelValues("audit_error").Inc()
		logger.WithError(err).Error("failed to append store history row")
		return nil
	}

	reservationsTotal.WithLabelValues("applied").Inc()
	logger.WithField("new_stock", newStock).Info("stock reservation applied")
	w.publishStockEvent(kafka.EventTypeStockReserved, job, newStock)
	return nil
}

func (w *Worker) publishStockEvent(eventType kafka.EventType, job Job, newStock int) {
	if w.producer == nil {
		return
	}
	event := kafka.NewStockEvent(eventType, job.StoreID, job.OrderID, job.SizeLabel, newStock)
	if err := w.producer.PublishStockEvent(event); err != nil {
		w.logger.WithError(err).WithField("order_id", job.OrderID).Warn("failed to publish stock event to kafka")
	}
}
