// Package order реализует конвейер создания заказа: валидацию запроса,
// разрешение сущностей, подбор размера и одну атомарную запись всех
// строк заказа. Списание остатка в транзакцию не входит — оно
// выполняется отложенно воркером резервирования.
package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
	"github.com/vladislavdragonenkov/insole-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/insole-oms/internal/metrics"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/reservation"
	"github.com/vladislavdragonenkov/insole-oms/internal/sizing"
)

// CreateRequest — разобранный запрос на создание заказа.
type CreateRequest struct {
	PartnerID  string
	CustomerID string
	// SupplyID либо ShadowKey: при наличии ключа черновика требование
	// персистентной версорунг снимается.
	SupplyID  string
	ShadowKey string

	PaymentMethod   string
	Quantity        int
	DiscountPercent float64

	Insurance       []InsuranceInput
	InsoleStandards []InsoleStandardInput

	EmployeeID    string
	StoreLocation string
	// ScreeningRef — внешний скрининг; при его наличии измерения длины
	// стопы у клиента могут отсутствовать.
	ScreeningRef string
}

// InsuranceInput — входная строка страхового расчёта.
type InsuranceInput struct {
	Description string
	Price       float64
}

// InsoleStandardInput — входная стандартная позиция стельки; числовые
// значения приходят строками и пустые трактуются как ноль.
type InsoleStandardInput struct {
	Name  string
	Left  string
	Right string
}

// CreateResult — результат успешного создания заказа.
type CreateResult struct {
	OrderID     string
	OrderNumber int64
	MatchedSize string
	SupplyType  domain.SupplyType
}

// ReservationScheduler планирует отложенное списание остатка.
type ReservationScheduler interface {
	Schedule(job reservation.Job)
}

// Coordinator — центральный оркестратор создания заказа.
type Coordinator struct {
	customers    domain.CustomerRepository
	partners     domain.PartnerRepository
	supplies     domain.SupplyRepository
	stores       domain.StoreRepository
	orders       domain.OrderRepository
	sequencer    *NumberSequencer
	promoter     *ShadowSupplyPromoter
	reservations ReservationScheduler
	producer     *kafka.Producer // опциональный Kafka producer
	metrics      *metrics.OrderMetrics
	logger       *log.Entry
}

// CoordinatorOptions задаёт опциональные зависимости координатора.
type CoordinatorOptions struct {
	Logger   *log.Entry
	Producer *kafka.Producer
	Metrics  *metrics.OrderMetrics
}

// CoordinatorOption настраивает Coordinator.
type CoordinatorOption func(*CoordinatorOptions)

// WithLogger задаёт logger координатора.
func WithLogger(logger *log.Entry) CoordinatorOption {
	return func(opts *CoordinatorOptions) {
		opts.Logger = logger
	}
}

// WithProducer задаёт опциональный Kafka producer.
func WithProducer(producer *kafka.Producer) CoordinatorOption {
	return func(opts *CoordinatorOptions) {
		opts.Producer = producer
	}
}

// WithMetrics задаёт метрики конвейера заказов.
func WithMetrics(m *metrics.OrderMetrics) CoordinatorOption {
	return func(opts *CoordinatorOptions) {
		opts.Metrics = m
	}
}

// NewCoordinator конструирует координатор с зависимостями.
func NewCoordinator(
	customers domain.CustomerRepository,
	partners domain.PartnerRepository,
	supplies domain.SupplyRepository,
	stores domain.StoreRepository,
	orders domain.OrderRepository,
	promoter *ShadowSupplyPromoter,
	reservations ReservationScheduler,
	options ...CoordinatorOption,
) *Coordinator {
	opts := CoordinatorOptions{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "order-coordinator")
	}

	return &Coordinator{
		customers:    customers,
		partners:     partners,
		supplies:     supplies,
		stores:       stores,
		orders:       orders,
		sequencer:    NewNumberSequencer(orders),
		promoter:     promoter,
		reservations: reservations,
		producer:     opts.Producer,
		metrics:      opts.Metrics,
		logger:       logger,
	}
}

// Create валидирует запрос, разрешает все сущности и атомарно
// записывает заказ со связанными строками. Подобранный размер на этом
// этапе только проверяется; списание остатка планируется после ответа.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordOrderDuration(time.Since(start))
		}
	}()

	result, err := c.create(ctx, req)
	if err != nil {
		c.recordFailure(err)
		return CreateResult{}, err
	}
	if c.metrics != nil {
		c.metrics.RecordOrderCreated()
	}
	return result, nil
}

func (c *Coordinator) create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return CreateResult{}, err
	}

	// Шаг 1: обязательные поля. Ключ черновика снимает требование
	// персистентной версорунг.
	if strings.TrimSpace(req.CustomerID) == "" {
		return CreateResult{}, domain.ErrCustomerIDRequired
	}
	if strings.TrimSpace(req.SupplyID) == "" && strings.TrimSpace(req.ShadowKey) == "" {
		return CreateResult{}, domain.ErrSupplyReferenceRequired
	}
	if req.Quantity < 1 {
		return CreateResult{}, domain.ErrQuantityInvalid
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return CreateResult{}, domain.ErrDiscountInvalid
	}

	// Шаг 2: способ оплаты и страховые требования.
	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return CreateResult{}, err
	}
	if method.Insurance() {
		if len(req.Insurance) == 0 {
			return CreateResult{}, domain.ErrInsuranceItemsRequired
		}
		for _, item := range req.Insurance {
			if strings.TrimSpace(item.Description) == "" && item.Price == 0 {
				return CreateResult{}, domain.ErrInsuranceItemEmpty
			}
		}
		partner, err := c.partners.Get(req.PartnerID)
		if err != nil {
			return CreateResult{}, err
		}
		if strings.TrimSpace(partner.VATCountry) == "" {
			return CreateResult{}, domain.ErrVATCountryMissing
		}
	}

	// Шаг 3: стандартные позиции стельки.
	standards, err := parseInsoleStandards(req.InsoleStandards)
	if err != nil {
		return CreateResult{}, err
	}

	// Шаг 4: клиент и его измерения.
	customer, err := c.customers.Get(req.CustomerID)
	if err != nil {
		return CreateResult{}, err
	}
	if strings.TrimSpace(req.ScreeningRef) == "" && !customer.HasFootLengths() {
		return CreateResult{}, domain.ErrFootLengthsMissing
	}

	// Шаги 5-6: эффективная версорунг — персистентная или из черновика.
	now := time.Now().UTC()
	var (
		supply         domain.Supply
		promotedSupply *domain.Supply
		shadowKey      string
	)
	if strings.TrimSpace(req.ShadowKey) != "" {
		shadow, err := c.promoter.Fetch(req.ShadowKey, req.PartnerID, req.CustomerID)
		if err != nil {
			return CreateResult{}, err
		}
		// Черновик со складом проверяется на подбор размера до
		// промоушена: заказ не должен создаваться против склада без
		// подходящего размера.
		if shadow.StoreID != "" {
			store, err := c.stores.Get(shadow.StoreID)
			if err != nil {
				return CreateResult{}, err
			}
			if _, err := sizing.Resolve(store, customer); err != nil {
				c.recordSizingRejection(err)
				return CreateResult{}, err
			}
		}
		supply = c.promoter.Build(shadow, now)
		promotedSupply = &supply
		shadowKey = req.ShadowKey
	} else {
		supply, err = c.supplies.Get(req.SupplyID)
		if err != nil {
			return CreateResult{}, err
		}
	}

	totalPrice := domain.TotalPrice(supply.PriceMaterial, supply.PriceLabor, req.Quantity, req.DiscountPercent)

	// Шаг 7: подбор размера против склада эффективной версорунг и
	// проверка остатка. Любой отказ здесь прерывает весь запрос — ни
	// одна строка заказа не записывается.
	var matchedLabel string
	if supply.StoreID != "" {
		store, err := c.stores.Get(supply.StoreID)
		if err != nil {
			return CreateResult{}, err
		}
		match, err := sizing.Resolve(store, customer)
		if err != nil {
			c.recordSizingRejection(err)
			return CreateResult{}, err
		}
		if store.Sizes[match.Label].Quantity < 1 {
			c.recordSizingRejection(domain.ErrSizeOutOfStock)
			return CreateResult{}, domain.ErrSizeOutOfStock
		}
		matchedLabel = match.Label
	}

	// Шаг 8: номер заказа и атомарная запись бандла.
	number, err := c.sequencer.Next(req.PartnerID, domain.OrderKindInsole)
	if err != nil {
		return CreateResult{}, err
	}

	bundle := c.buildBundle(req, method, supply, promotedSupply, standards, matchedLabel, number, totalPrice, now)
	if err := c.orders.CreateBundle(bundle); err != nil {
		return CreateResult{}, fmt.Errorf("persist order bundle: %w", err)
	}

	orderID := bundle.Order.ID
	c.logger.WithFields(log.Fields{
		"order_id":     orderID,
		"order_number": number,
		"partner_id":   req.PartnerID,
		"matched_size": matchedLabel,
		"supply_type":  supply.Type,
	}).Info("order created")

	// После коммита: отложенное списание остатка, удаление черновика,
	// событие в Kafka. Ничто из этого не задерживает ответ клиенту.
	if matchedLabel != "" {
		c.reservations.Schedule(reservation.Job{
			OrderID:    orderID,
			PartnerID:  req.PartnerID,
			CustomerID: req.CustomerID,
			StoreID:    supply.StoreID,
			SizeLabel:  matchedLabel,
		})
	}
	if shadowKey != "" {
		c.promoter.ScheduleDelete(shadowKey)
		if c.metrics != nil {
			c.metrics.RecordShadowPromoted()
		}
	}
	c.publishOrderCreated(bundle.Order, matchedLabel)

	return CreateResult{
		OrderID:     orderID,
		OrderNumber: number,
		MatchedSize: matchedLabel,
		SupplyType:  supply.Type,
	}, nil
}

func (c *Coordinator) buildBundle(
	req CreateRequest,
	method domain.PaymentMethod,
	supply domain.Supply,
	promotedSupply *domain.Supply,
	standards []domain.InsoleStandard,
	matchedLabel string,
	number int64,
	totalPrice decimal.Decimal,
	now time.Time,
) domain.OrderBundle {
	orderID := uuid.NewString()

	ord := domain.Order{
		ID:              orderID,
		Number:          number,
		Kind:            domain.OrderKindInsole,
		PartnerID:       req.PartnerID,
		CustomerID:      req.CustomerID,
		SupplyID:        supply.ID,
		StoreID:         supply.StoreID,
		SizeLabel:       matchedLabel,
		Quantity:        req.Quantity,
		DiscountPercent: req.DiscountPercent,
		TotalPrice:      totalPrice,
		PaymentMethod:   method,
		EmployeeID:      req.EmployeeID,
		StoreLocation:   req.StoreLocation,
		CreatedAt:       now,
	}

	snapshot := domain.ProductSnapshot{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		SupplyID:      supply.ID,
		Name:          supply.Name,
		Manufacturer:  supply.Manufacturer,
		Model:         supply.Model,
		Materials:     append([]string(nil), supply.Materials...),
		Standards:     standards,
		PriceMaterial: supply.PriceMaterial,
		PriceLabor:    supply.PriceLabor,
		CreatedAt:     now,
	}

	orderHistory := []domain.OrderHistory{
		{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Type:      domain.OrderHistoryCreated,
			Message:   fmt.Sprintf("order %d created", number),
			CreatedAt: now,
		},
		{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Type:      domain.OrderHistoryStatus,
			Message:   "created",
			CreatedAt: now,
		},
	}

	customerHistory := []domain.CustomerHistory{
		{
			ID:         uuid.NewString(),
			CustomerID: req.CustomerID,
			OrderID:    orderID,
			Message:    fmt.Sprintf("order %d placed for supply %q", number, supply.Name),
			CreatedAt:  now,
		},
	}

	insurance := make([]domain.InsuranceItem, 0, len(req.Insurance))
	if method.Insurance() {
		for _, item := range req.Insurance {
			insurance = append(insurance, domain.InsuranceItem{
				ID:          uuid.NewString(),
				OrderID:     orderID,
				Description: item.Description,
				Price:       decimal.NewFromFloat(item.Price).Round(2),
				CreatedAt:   now,
			})
		}
	}

	return domain.OrderBundle{
		Order:           ord,
		Snapshot:        snapshot,
		OrderHistory:    orderHistory,
		CustomerHistory: customerHistory,
		Insurance:       insurance,
		PromotedSupply:  promotedSupply,
	}
}

func (c *Coordinator) publishOrderCreated(ord domain.Order, matchedLabel string) {
	if c.producer == nil {
		return
	}
	event := kafka.NewOrderEvent(kafka.EventTypeOrderCreated, ord.ID, ord.PartnerID, ord.CustomerID, map[string]interface{}{
		"order_number": ord.Number,
		"matched_size": matchedLabel,
		"total_price":  ord.TotalPrice.String(),
	})
	if err := c.producer.PublishOrderEvent(event); err != nil {
		// Kafka опционален; сбой публикации не влияет на заказ.
		c.logger.WithError(err).WithField("order_id", ord.ID).Warn("failed to publish order event to kafka")
	}
}

func (c *Coordinator) recordSizingRejection(err error) {
	if c.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrSizeToleranceExceeded):
		c.metrics.RecordSizingRejection("tolerance")
	case errors.Is(err, domain.ErrSizeOutOfStock):
		c.metrics.RecordSizingRejection("out_of_stock")
	default:
		c.metrics.RecordSizingRejection("no_match")
	}
}

func (c *Coordinator) recordFailure(err error) {
	if c.metrics == nil {
		return
	}
	switch {
	case domain.IsValidation(err):
		c.metrics.RecordOrderFailure("validation")
	case domain.IsNotFound(err):
		c.metrics.RecordOrderFailure("not_found")
	case domain.IsSizingConflict(err):
		c.metrics.RecordOrderFailure("sizing")
	case domain.IsPersistenceConflict(err):
		c.metrics.RecordOrderFailure("conflict")
	default:
		c.metrics.RecordOrderFailure("unexpected")
	}
}

// parseInsoleStandards проверяет стандартные позиции: имя обязательно,
// пустые числовые значения трактуются как ноль.
func parseInsoleStandards(inputs []InsoleStandardInput) ([]domain.InsoleStandard, error) {
	standards := make([]domain.InsoleStandard, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input.Name) == "" {
			return nil, domain.ErrInsoleStandardNameEmpty
		}
		left, err := parseStandardValue(input.Left)
		if err != nil {
			return nil, err
		}
		right, err := parseStandardValue(input.Right)
		if err != nil {
			return nil, err
		}
		standards = append(standards, domain.InsoleStandard{Name: input.Name, Left: left, Right: right})
	}
	return standards, nil
}

func parseStandardValue(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.ErrInsoleStandardValueInvalid
	}
	return value, nil
}
