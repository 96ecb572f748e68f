// Package shadowsupply содержит обслуживание кэша черновиков версорунг.
package shadowsupply

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

const (
	defaultCleanupInterval  = 5 * time.Minute
	defaultCleanupBatchSize = 200
)

var (
	shadowCleanupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insole_shadow_cleanup_runs_total",
		Help: "Total number of shadow supply cleanup runs grouped by result.",
	}, []string{"result"})
	shadowCleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insole_shadow_cleanup_deleted_total",
		Help: "Total number of expired shadow supply drafts removed from the cache.",
	})
)

// CleanupOptions задаёт параметры воркера очистки кэша черновиков.
type CleanupOptions struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между циклами очистки.
func WithInterval(interval time.Duration) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт размер порции для одного удаления.
func WithBatchSize(batchSize int) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.BatchSize = batchSize
	}
}

// CleanupWorker периодически удаляет истёкшие черновики версорунг из
// кэша. Черновик, потреблённый заказом, удаляется самим конвейером;
// воркер подчищает только брошенные.
type CleanupWorker struct {
	cache     domain.ShadowSupplyCache
	logger    *log.Entry
	interval  time.Duration
	batchSize int
}

// NewCleanupWorker создаёт воркер очистки кэша черновиков.
func NewCleanupWorker(cache domain.ShadowSupplyCache, options ...CleanupOption) *CleanupWorker {
	opts := CleanupOptions{
		Interval:  defaultCleanupInterval,
		BatchSize: defaultCleanupBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "shadow-cleanup-worker")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultCleanupInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultCleanupBatchSize
	}

	return &CleanupWorker{
		cache:     cache,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.cache == nil {
		w.logger.Warn("shadow cleanup worker is disabled: cache is nil")
		return
	}

	w.cleanup(ctx, time.Now().UTC())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx, time.Now().UTC())
		}
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context, before time.Time) {
	deleted, err := w.DeleteExpired(ctx, before)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		shadowCleanupRunsTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).Warn("shadow cleanup run failed")
		return
	}

	shadowCleanupRunsTotal.WithLabelValues("ok").Inc()
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Info("shadow cleanup completed")
	}
}

// DeleteExpired удаляет все черновики с истёкшим TTL порциями batchSize.
func (w *CleanupWorker) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	totalDeleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		deleted, err := w.cache.DeleteExpired(before, w.batchSize)
		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted > 0 {
			shadowCleanupDeletedTotal.Add(float64(deleted))
		}

		if deleted < w.batchSize {
			break
		}
	}

	return totalDeleted, nil
}
