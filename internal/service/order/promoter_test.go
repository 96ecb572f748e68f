package order

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
	"github.com/vladislavdragonenkov/insole-oms/internal/storage/memory"
)

func seedShadow(t *testing.T, cache *memory.ShadowSupplyCache) domain.ShadowSupply {
	t.Helper()
	shadow := domain.ShadowSupply{
		Key:        "draft-1",
		PartnerID:  "partner-1",
		CustomerID: "customer-1",
		Name:       "custom insole",
		StoreID:    "store-1",
	}
	if err := cache.Set(shadow, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	return shadow
}

func TestPromoterFetch(t *testing.T) {
	cache := memory.NewShadowSupplyCache()
	seedShadow(t, cache)
	promoter := NewShadowSupplyPromoter(cache, syncQueue{}, nil)

	shadow, err := promoter.Fetch("draft-1", "partner-1", "customer-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if shadow.Name != "custom insole" {
		t.Fatalf("unexpected shadow: %+v", shadow)
	}
}

func TestPromoterFetchRejectsForeignKey(t *testing.T) {
	cache := memory.NewShadowSupplyCache()
	seedShadow(t, cache)
	promoter := NewShadowSupplyPromoter(cache, syncQueue{}, nil)

	cases := []struct {
		name       string
		partnerID  string
		customerID string
	}{
		{name: "wrong partner", partnerID: "partner-2", customerID: "customer-1"},
		{name: "wrong customer", partnerID: "partner-1", customerID: "customer-2"},
		{name: "unknown key stays indistinguishable", partnerID: "partner-1", customerID: "customer-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key := "draft-1"
			if tc.name == "unknown key stays indistinguishable" {
				key = "missing"
			}
			if _, err := promoter.Fetch(key, tc.partnerID, tc.customerID); !errors.Is(err, domain.ErrShadowSupplyNotFound) {
				t.Fatalf("expected ErrShadowSupplyNotFound, got %v", err)
			}
		})
	}
}

func TestPromoterBuild(t *testing.T) {
	cache := memory.NewShadowSupplyCache()
	shadow := seedShadow(t, cache)
	promoter := NewShadowSupplyPromoter(cache, syncQueue{}, nil)

	now := time.Now().UTC()
	supply := promoter.Build(shadow, now)

	if supply.Type != domain.SupplyTypePrivate {
		t.Fatalf("type = %q, want private", supply.Type)
	}
	if supply.ID == "" {
		t.Fatal("promoted supply must get a fresh id")
	}
	if supply.Name != shadow.Name || supply.StoreID != shadow.StoreID {
		t.Fatalf("promoted supply lost draft fields: %+v", supply)
	}
}

func TestPromoterScheduleDelete(t *testing.T) {
	cache := memory.NewShadowSupplyCache()
	seedShadow(t, cache)
	promoter := NewShadowSupplyPromoter(cache, syncQueue{}, nil)

	promoter.ScheduleDelete("draft-1")

	if _, err := cache.Get("draft-1"); !errors.Is(err, domain.ErrShadowSupplyNotFound) {
		t.Fatalf("key must be deleted, got %v", err)
	}
}
