package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
	"github.com/vladislavdragonenkov/insole-oms/internal/service/order"
	"github.com/vladislavdragonenkov/insole-oms/internal/storage/memory"
)

type stubCreator struct {
	result order.CreateResult
	err    error

	gotReq order.CreateRequest
}

func (s *stubCreator) Create(_ context.Context, req order.CreateRequest) (order.CreateResult, error) {
	s.gotReq = req
	return s.result, s.err
}

func newServer(creator *stubCreator, orders domain.OrderRepository) *httptest.Server {
	if orders == nil {
		orders = memory.NewOrderRepository(nil)
	}
	handler := NewHandler(creator, orders, nil)
	return httptest.NewServer(handler.Routes())
}

func TestCreateOrderEndpoint(t *testing.T) {
	creator := &stubCreator{result: order.CreateResult{
		OrderID:     "order-1",
		OrderNumber: 1000,
		MatchedSize: "35",
		SupplyType:  domain.SupplyTypeCatalog,
	}}
	srv := newServer(creator, nil)
	defer srv.Close()

	body := `{
		"partnerId": "partner-1",
		"customerId": "customer-1",
		"versorgungId": "supply-1",
		"paymentMethod": "self_pay",
		"quantity": 2,
		"discountPercent": 5,
		"insoleStandards": [{"name": "pelotte", "left": "3.5", "right": ""}]
	}`
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /orders: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var got createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.Success || got.OrderID != "order-1" || got.OrderNumber != 1000 || got.MatchedSize != "35" {
		t.Fatalf("unexpected response: %+v", got)
	}

	if creator.gotReq.CustomerID != "customer-1" || creator.gotReq.Quantity != 2 {
		t.Fatalf("request not mapped: %+v", creator.gotReq)
	}
	if len(creator.gotReq.InsoleStandards) != 1 || creator.gotReq.InsoleStandards[0].Name != "pelotte" {
		t.Fatalf("insole standards not mapped: %+v", creator.gotReq.InsoleStandards)
	}
}

func TestCreateOrderEndpointErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: domain.ErrQuantityInvalid, wantStatus: http.StatusBadRequest},
		{name: "sizing tolerance", err: domain.ErrSizeToleranceExceeded, wantStatus: http.StatusBadRequest},
		{name: "out of stock", err: domain.ErrSizeOutOfStock, wantStatus: http.StatusBadRequest},
		{name: "persistence conflict", err: domain.ErrPersistenceConflict, wantStatus: http.StatusBadRequest},
		{name: "customer not found", err: domain.ErrCustomerNotFound, wantStatus: http.StatusNotFound},
		{name: "shadow not found", err: domain.ErrShadowSupplyNotFound, wantStatus: http.StatusNotFound},
		{name: "unexpected", err: errors.New("db exploded"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(&stubCreator{err: tc.err}, nil)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(`{}`))
			if err != nil {
				t.Fatalf("POST /orders: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}

			var got errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.Success {
				t.Fatal("success must be false on error")
			}
			if got.Message == "" {
				t.Fatal("message must carry the error text")
			}
		})
	}
}

func TestCreateOrderEndpointBadJSON(t *testing.T) {
	srv := newServer(&stubCreator{}, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST /orders: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	orders := memory.NewOrderRepository(nil)
	err := orders.CreateBundle(domain.OrderBundle{
		Order: domain.Order{
			ID:            "order-1",
			Number:        1000,
			Kind:          domain.OrderKindInsole,
			PartnerID:     "partner-1",
			CustomerID:    "customer-1",
			SupplyID:      "supply-1",
			SizeLabel:     "35",
			Quantity:      1,
			TotalPrice:    decimal.RequireFromString("150.00"),
			PaymentMethod: domain.PaymentMethodSelfPay,
			CreatedAt:     time.Now().UTC(),
		},
	})
	if err != nil {
		t.Fatalf("CreateBundle: %v", err)
	}

	srv := newServer(&stubCreator{}, orders)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/orders/order-1")
	if err != nil {
		t.Fatalf("GET /orders/order-1: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got orderDTO
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "order-1" || got.Number != 1000 || got.TotalPrice != "150.00" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	srv := newServer(&stubCreator{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/orders/ghost")
	if err != nil {
		t.Fatalf("GET /orders/ghost: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
