package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/reservation"
	"github.com/vladislavdragonenkov/insole-oms/internal/storage/memory"
)

// syncQueue выполняет задачи немедленно, чтобы отложенные эффекты были
// видны в тестах сразу.
type syncQueue struct{}

func (syncQueue) Enqueue(task domain.Task) {
	_ = task.Run(context.Background())
}

type jobRecorder struct {
	jobs []reservation.Job
}

func (r *jobRecorder) Schedule(job reservation.Job) {
	r.jobs = append(r.jobs, job)
}

type testEnv struct {
	customers *memory.CustomerRepository
	partners  *memory.PartnerRepository
	supplies  *memory.SupplyRepository
	stores    *memory.StoreRepository
	orders    *memory.OrderRepository
	cache     *memory.ShadowSupplyCache
	jobs      *jobRecorder

	coordinator *Coordinator
}

func floatPtr(v float64) *float64 { return &v }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		customers: memory.NewCustomerRepository(),
		partners:  memory.NewPartnerRepository(),
		supplies:  memory.NewSupplyRepository(),
		stores:    memory.NewStoreRepository(),
		cache:     memory.NewShadowSupplyCache(),
		jobs:      &jobRecorder{},
	}
	env.orders = memory.NewOrderRepository(env.supplies)

	promoter := NewShadowSupplyPromoter(env.cache, syncQueue{}, nil)
	env.coordinator = NewCoordinator(
		env.customers,
		env.partners,
		env.supplies,
		env.stores,
		env.orders,
		promoter,
		env.jobs,
	)

	env.partners.Put(domain.Partner{ID: "partner-1", Name: "Ortho GmbH", VATCountry: "DE"})
	env.customers.Put(domain.Customer{
		ID:                "customer-1",
		PartnerID:         "partner-1",
		FootLengthLeftMM:  220,
		FootLengthRightMM: 218,
	})
	env.stores.Put(domain.Store{
		ID:        "store-1",
		PartnerID: "partner-1",
		Type:      domain.StoreTypeInsole,
		Sizes: map[string]domain.SizeEntry{
			"34": {LengthMM: floatPtr(215), Quantity: 4},
			"35": {LengthMM: floatPtr(225), Quantity: 3},
			"36": {LengthMM: floatPtr(235), Quantity: 2},
		},
	})
	env.supplies.Put(domain.Supply{
		ID:            "supply-1",
		PartnerID:     "partner-1",
		Name:          "sport insole",
		StoreID:       "store-1",
		PriceMaterial: decimal.RequireFromString("100.00"),
		PriceLabor:    decimal.RequireFromString("50.00"),
		Type:          domain.SupplyTypeCatalog,
	})
	return env
}

func validRequest() CreateRequest {
	return CreateRequest{
		PartnerID:     "partner-1",
		CustomerID:    "customer-1",
		SupplyID:      "supply-1",
		PaymentMethod: "self_pay",
		Quantity:      1,
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.coordinator.Create(context.Background(), validRequest())
	require.NoError(t, err)

	// Цель подбора: max(220, 218) + 5 = 225, ближайшая длина — "35".
	assert.Equal(t, "35", result.MatchedSize)
	assert.Equal(t, int64(1000), result.OrderNumber)
	assert.Equal(t, domain.SupplyTypeCatalog, result.SupplyType)

	ord, err := env.orders.Get(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "150", ord.TotalPrice.String())
	assert.Equal(t, "35", ord.SizeLabel)

	snapshot, err := env.orders.GetSnapshot(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "sport insole", snapshot.Name)

	history, err := env.orders.ListHistory(result.OrderID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// Списание остатка отложено: на момент ответа склад не тронут.
	store, err := env.stores.Get("store-1")
	require.NoError(t, err)
	assert.Equal(t, 3, store.Sizes["35"].Quantity)

	require.Len(t, env.jobs.jobs, 1)
	assert.Equal(t, result.OrderID, env.jobs.jobs[0].OrderID)
	assert.Equal(t, "35", env.jobs.jobs[0].SizeLabel)
}

func TestCreateOrderSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.coordinator.Create(context.Background(), validRequest())
	require.NoError(t, err)
	second, err := env.coordinator.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), first.OrderNumber)
	assert.Equal(t, int64(1001), second.OrderNumber)
}

func TestCreateOrderValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr error
	}{
		{name: "missing customer", mutate: func(r *CreateRequest) { r.CustomerID = "" }, wantErr: domain.ErrCustomerIDRequired},
		{name: "missing supply reference", mutate: func(r *CreateRequest) { r.SupplyID = "" }, wantErr: domain.ErrSupplyReferenceRequired},
		{name: "zero quantity", mutate: func(r *CreateRequest) { r.Quantity = 0 }, wantErr: domain.ErrQuantityInvalid},
		{name: "negative discount", mutate: func(r *CreateRequest) { r.DiscountPercent = -1 }, wantErr: domain.ErrDiscountInvalid},
		{name: "discount above 100", mutate: func(r *CreateRequest) { r.DiscountPercent = 101 }, wantErr: domain.ErrDiscountInvalid},
		{name: "unknown payment method", mutate: func(r *CreateRequest) { r.PaymentMethod = "cash" }, wantErr: domain.ErrPaymentMethodInvalid},
		{name: "insurance without items", mutate: func(r *CreateRequest) { r.PaymentMethod = "insurance" }, wantErr: domain.ErrInsuranceItemsRequired},
		{
			name: "empty insurance item",
			mutate: func(r *CreateRequest) {
				r.PaymentMethod = "insurance"
				r.Insurance = []InsuranceInput{{}}
			},
			wantErr: domain.ErrInsuranceItemEmpty,
		},
		{
			name: "insole standard without name",
			mutate: func(r *CreateRequest) {
				r.InsoleStandards = []InsoleStandardInput{{Left: "3.5"}}
			},
			wantErr: domain.ErrInsoleStandardNameEmpty,
		},
		{
			name: "insole standard bad value",
			mutate: func(r *CreateRequest) {
				r.InsoleStandards = []InsoleStandardInput{{Name: "pelotte", Left: "abc"}}
			},
			wantErr: domain.ErrInsoleStandardValueInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := validRequest()
			tc.mutate(&req)

			_, err := env.coordinator.Create(context.Background(), req)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, env.jobs.jobs, "no reservation may be scheduled on rejection")
		})
	}
}

func TestCreateOrderInsuranceNeedsVATCountry(t *testing.T) {
	env := newTestEnv(t)
	env.partners.Put(domain.Partner{ID: "partner-1", Name: "Ortho GmbH"})

	req := validRequest()
	req.PaymentMethod = "insurance"
	req.Insurance = []InsuranceInput{{Description: "Einlage", Price: 42.50}}

	_, err := env.coordinator.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrVATCountryMissing)
}

func TestCreateOrderInsuranceItemsPersisted(t *testing.T) {
	env := newTestEnv(t)

	req := validRequest()
	req.PaymentMethod = "insurance_copay"
	req.Insurance = []InsuranceInput{
		{Description: "Einlage", Price: 42.50},
		{Description: "Zuzahlung", Price: 10},
	}

	result, err := env.coordinator.Create(context.Background(), req)
	require.NoError(t, err)

	items, err := env.orders.ListInsurance(result.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "42.5", items[0].Price.String())
}

func TestCreateOrderMissingFootLengths(t *testing.T) {
	env := newTestEnv(t)
	env.customers.Put(domain.Customer{ID: "customer-2", PartnerID: "partner-1"})

	req := validRequest()
	req.CustomerID = "customer-2"

	_, err := env.coordinator.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrFootLengthsMissing)

	// Внешний скрининг снимает требование измерений, но версорунг со
	// складом всё равно требует подбора размера — он провалится на
	// нулевой цели. Версорунг без склада проходит.
	env.supplies.Put(domain.Supply{
		ID:            "supply-noshop",
		PartnerID:     "partner-1",
		Name:          "consultation",
		PriceMaterial: decimal.RequireFromString("30.00"),
		Type:          domain.SupplyTypeCatalog,
	})
	req.ScreeningRef = "scan-77"
	req.SupplyID = "supply-noshop"

	result, err := env.coordinator.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, result.MatchedSize)
	assert.Empty(t, env.jobs.jobs, "storeless supply schedules no reservation")
}

func TestCreateOrderToleranceRejection(t *testing.T) {
	env := newTestEnv(t)
	env.customers.Put(domain.Customer{
		ID:                "customer-1",
		PartnerID:         "partner-1",
		FootLengthLeftMM:  270,
		FootLengthRightMM: 268,
	})

	_, err := env.coordinator.Create(context.Background(), validRequest())
	require.ErrorIs(t, err, domain.ErrSizeToleranceExceeded)

	var tolErr *domain.ToleranceError
	require.ErrorAs(t, err, &tolErr)
	// Цель 275: ближайший кандидат "36" на 235, в допуске 10мм никого.
	assert.Equal(t, "36", tolErr.RejectedLabel)
	assert.NotNil(t, tolErr.NearestLowerMM)
	assert.Nil(t, tolErr.NearestUpperMM)
}

func TestCreateOrderOutOfStock(t *testing.T) {
	env := newTestEnv(t)
	env.stores.Put(domain.Store{
		ID:        "store-1",
		PartnerID: "partner-1",
		Type:      domain.StoreTypeInsole,
		Sizes: map[string]domain.SizeEntry{
			"35": {LengthMM: floatPtr(225), Quantity: 0},
		},
	})

	_, err := env.coordinator.Create(context.Background(), validRequest())
	require.ErrorIs(t, err, domain.ErrSizeOutOfStock)

	// Ни одной строки заказа не записано.
	max, err := env.orders.MaxOrderNumber("partner-1", domain.OrderKindInsole)
	require.NoError(t, err)
	assert.Zero(t, max)
	assert.Empty(t, env.jobs.jobs)
}

func TestCreateOrderShadowSupplyPromotion(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.cache.Set(domain.ShadowSupply{
		Key:           "draft-1",
		PartnerID:     "partner-1",
		CustomerID:    "customer-1",
		Name:          "custom insole",
		StoreID:       "store-1",
		PriceMaterial: decimal.RequireFromString("200.00"),
		PriceLabor:    decimal.RequireFromString("80.00"),
	}, time.Minute))

	req := validRequest()
	req.SupplyID = ""
	req.ShadowKey = "draft-1"

	result, err := env.coordinator.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.SupplyTypePrivate, result.SupplyType)
	assert.Equal(t, "35", result.MatchedSize)

	ord, err := env.orders.Get(result.OrderID)
	require.NoError(t, err)

	supply, err := env.supplies.Get(ord.SupplyID)
	require.NoError(t, err)
	assert.Equal(t, domain.SupplyTypePrivate, supply.Type)
	assert.Equal(t, "custom insole", supply.Name)

	// Ключ потреблён: повторный промоушен невозможен.
	req2 := validRequest()
	req2.SupplyID = ""
	req2.ShadowKey = "draft-1"
	_, err = env.coordinator.Create(context.Background(), req2)
	require.ErrorIs(t, err, domain.ErrShadowSupplyNotFound)
}

func TestCreateOrderShadowSupplyOwnership(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.cache.Set(domain.ShadowSupply{
		Key:        "draft-1",
		PartnerID:  "partner-other",
		CustomerID: "customer-1",
	}, time.Minute))

	req := validRequest()
	req.SupplyID = ""
	req.ShadowKey = "draft-1"

	_, err := env.coordinator.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrShadowSupplyNotFound)
}

func TestCreateOrderNotFoundEntities(t *testing.T) {
	env := newTestEnv(t)

	req := validRequest()
	req.CustomerID = "ghost"
	_, err := env.coordinator.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	req = validRequest()
	req.SupplyID = "ghost"
	_, err = env.coordinator.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrSupplyNotFound)
}
