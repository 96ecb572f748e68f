package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
	"github.com/vladislavdragonenkov/insole-oms/internal/storage/memory"
	"github.com/vladislavdragonenkov/insole-oms/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения. Кэш черновиков всегда
// in-memory: его содержимое эфемерно по контракту.
type Dependencies struct {
	Customers    domain.CustomerRepository
	Partners     domain.PartnerRepository
	Supplies     domain.SupplyRepository
	Stores       domain.StoreRepository
	StoreHistory domain.StoreHistoryRepository
	Orders       domain.OrderRepository
	ShadowCache  domain.ShadowSupplyCache

	// PG заполнен только при postgres-бэкенде; нужен для health-чека и
	// закрытия подключения.
	PG *postgres.Store

	Logger *log.Entry
}

// NewDependencies выбирает бэкенд хранения: PostgreSQL при непустом dsn,
// иначе in-memory.
func NewDependencies(ctx context.Context, dsn string, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		ShadowCache: memory.NewShadowSupplyCache(),
		Logger:      logger,
	}

	if dsn == "" {
		logger.Info("no database DSN configured, using in-memory storage")
		supplies := memory.NewSupplyRepository()
		deps.Customers = memory.NewCustomerRepository()
		deps.Partners = memory.NewPartnerRepository()
		deps.Supplies = supplies
		deps.Stores = memory.NewStoreRepository()
		deps.StoreHistory = memory.NewStoreHistoryRepository()
		deps.Orders = memory.NewOrderRepository(supplies)
		return deps, nil
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized")

	deps.PG = store
	deps.Customers = postgres.NewCustomerRepository(store)
	deps.Partners = postgres.NewPartnerRepository(store)
	deps.Supplies = postgres.NewSupplyRepository(store)
	deps.Stores = postgres.NewStoreRepository(store)
	deps.StoreHistory = postgres.NewStoreHistoryRepository(store)
	deps.Orders = postgres.NewOrderRepository(store)
	return deps, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d == nil || d.PG == nil {
		return
	}
	if err := d.PG.Close(); err != nil {
		d.Logger.WithError(err).Warn("failed to close postgres store")
	}
}
