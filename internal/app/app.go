// Package app собирает сервис заказов: хранилища, очередь задач,
// воркеры, HTTP API и операционный листенер с метриками.
package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/insole-oms/internal/health"
	"github.com/vladislavdragonenkov/insole-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/insole-oms/internal/metrics"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/order"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/reservation"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/shadowsupply"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/tasks"
	"github.com/vladislavdragonenkov/insole-oms/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/insole-oms/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string
	// DBDSN — строка подключения PostgreSQL; пустая включает in-memory
	// хранилище.
	DBDSN string
	// KafkaBrokers — список брокеров через запятую; пустой отключает Kafka.
	KafkaBrokers string
}

// DefaultConfig возвращает базовые адреса API и метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// Run запускает сервис и блокируется до отмены ctx или фатальной ошибки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	kafkaProducer := initKafkaProducer(cfg.KafkaBrokers, logger)

	queue := tasks.NewQueue(tasks.WithLogger(log.WithField("component", "task-queue")))
	go queue.Run(ctx)

	reservationWorker := reservation.NewWorker(
		deps.Stores,
		deps.StoreHistory,
		queue,
		reservation.WithProducer(kafkaProducer),
	)

	promoter := order.NewShadowSupplyPromoter(deps.ShadowCache, queue, nil)
	coordinator := order.NewCoordinator(
		deps.Customers,
		deps.Partners,
		deps.Supplies,
		deps.Stores,
		deps.Orders,
		promoter,
		reservationWorker,
		order.WithProducer(kafkaProducer),
		order.WithMetrics(metrics.NewOrderMetrics()),
	)

	cleanupWorker := shadowsupply.NewCleanupWorker(deps.ShadowCache)
	go cleanupWorker.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.PG != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.PG.Ping(pingCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiHandler := httpapi.NewHandler(coordinator, deps.Orders, log.WithField("component", "httpapi"))
	apiSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiHandler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// initKafkaProducer создаёт опциональный Kafka producer. Недоступность
// брокеров не мешает запуску: сервис продолжает без событий.
func initKafkaProducer(brokerList string, logger *log.Entry) *kafka.Producer {
	if brokerList == "" {
		return nil
	}

	brokers := strings.Split(brokerList, ",")
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer
}

func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}

// startMetricsServer запускает операционный листенер: /metrics, /healthz, /livez.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
