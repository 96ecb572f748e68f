// Package tasks реализует внутрипроцессную очередь отложенных задач.
// Задачи выполняются после того, как ответ на породивший их запрос уже
// отправлен; их ошибки логируются и никогда не доходят до клиента.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

const (
	defaultWorkers     = 2
	defaultBufferSize  = 256
	defaultTaskTimeout = 30 * time.Second
)

var (
	tasksEnqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insole_tasks_enqueued_total",
		Help: "Total number of deferred tasks enqueued grouped by result.",
	}, []string{"result"})
	tasksProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insole_tasks_processed_total",
		Help: "Total number of deferred tasks processed grouped by result.",
	}, []string{"result"})
	tasksQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "insole_tasks_queue_depth",
		Help: "Current number of tasks waiting in the deferred queue.",
	})
)

// QueueOptions задаёт параметры очереди.
type QueueOptions struct {
	Logger      *log.Entry
	Workers     int
	BufferSize  int
	TaskTimeout time.Duration
}

// Option настраивает Queue.
type Option func(*QueueOptions)

// WithLogger задаёт logger для очереди.
func WithLogger(logger *log.Entry) Option {
	return func(opts *QueueOptions) {
		opts.Logger = logger
	}
}

// WithWorkers задаёт количество воркеров.
func WithWorkers(workers int) Option {
	return func(opts *QueueOptions) {
		opts.Workers = workers
	}
}

// WithBufferSize задаёт ёмкость буфера очереди.
func WithBufferSize(size int) Option {
	return func(opts *QueueOptions) {
		opts.BufferSize = size
	}
}

// WithTaskTimeout задаёт таймаут на выполнение одной задачи.
func WithTaskTimeout(timeout time.Duration) Option {
	return func(opts *QueueOptions) {
		opts.TaskTimeout = timeout
	}
}

// Queue — очередь отложенной работы с пулом воркеров.
type Queue struct {
	tasks       chan domain.Task
	logger      *log.Entry
	workers     int
	taskTimeout time.Duration

	closeOnce sync.Once
}

// NewQueue создаёт очередь отложенных задач.
func NewQueue(options ...Option) *Queue {
	opts := QueueOptions{
		Workers:     defaultWorkers,
		BufferSize:  defaultBufferSize,
		TaskTimeout: defaultTaskTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "task-queue")
	}

	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = defaultTaskTimeout
	}

	return &Queue{
		tasks:       make(chan domain.Task, opts.BufferSize),
		logger:      logger,
		workers:     opts.Workers,
		taskTimeout: opts.TaskTimeout,
	}
}

// Enqueue ставит задачу в очередь, не блокируя вызывающего. При
// переполненном буфере задача отбрасывается с логом: очередь
// best-effort, её отказ не должен задерживать ответ клиенту.
func (q *Queue) Enqueue(task domain.Task) {
	if task.Run == nil {
		q.logger.WithField("task", task.Name).Warn("dropping task without run func")
		tasksEnqueuedTotal.WithLabelValues("invalid").Inc()
		return
	}

	select {
	case q.tasks <- task:
		tasksEnqueuedTotal.WithLabelValues("ok").Inc()
		tasksQueueDepth.Set(float64(len(q.tasks)))
	default:
		tasksEnqueuedTotal.WithLabelValues("dropped").Inc()
		q.logger.WithField("task", task.Name).Error("task queue is full, dropping task")
	}
}

// Run запускает воркеры и блокируется до отмены ctx. Начатые задачи
// дорабатывают до конца.
func (q *Queue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.worker(ctx)
		}()
	}
	wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			tasksQueueDepth.Set(float64(len(q.tasks)))
			q.execute(task)
		}
	}
}

func (q *Queue) execute(task domain.Task) {
	defer func() {
		if r := recover(); r != nil {
			tasksProcessedTotal.WithLabelValues("panic").Inc()
			q.logger.WithFields(log.Fields{
				"task":  task.Name,
				"panic": r,
			}).Error("deferred task panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.taskTimeout)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		tasksProcessedTotal.WithLabelValues("error").Inc()
		q.logger.WithError(err).WithField("task", task.Name).Warn("deferred task failed")
		return
	}
	tasksProcessedTotal.WithLabelValues("ok").Inc()
}

var _ domain.TaskQueue = (*Queue)(nil)
