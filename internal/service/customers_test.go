package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/cache"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/observability"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"go.uber.org/zap"
)

func TestRefreshAll_RepopulatesBalanceCache(t *testing.T) {
	f := newFakeBackend()
	f.seedCustomer("1000000001", 1500)
	f.seedCustomer("1000000002", 0)
	f.seedCustomer("1000000003", 250000)

	c := cache.New[money.Cents](time.Minute)
	svc := service.NewCustomerService(f, c, 5*time.Second, observability.NewMetrics(), zap.NewNop())

	refreshed, err := svc.RefreshAll(context.Background(), testBusiness)
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if len(refreshed) != 3 {
		t.Fatalf("refreshed %d customers, want 3", len(refreshed))
	}

	want := map[string]money.Cents{
		testBusiness + ":1000000001": 1500,
		testBusiness + ":1000000002": 0,
		testBusiness + ":1000000003": 250000,
	}
	for key, balance := range want {
		got, ok := c.Get(key)
		if !ok {
			t.Errorf("cache missing %s", key)
			continue
		}
		if got != balance {
			t.Errorf("cache[%s] = %d, want %d", key, got, balance)
		}
	}
}

func TestDeleteCustomer_RemovesCustomer(t *testing.T) {
	f := newFakeBackend()
	f.seedCustomer("1000000001", 1500)

	svc := service.NewCustomerService(f, cache.New[money.Cents](time.Minute), 5*time.Second, observability.NewMetrics(), zap.NewNop())
	if err := svc.DeleteCustomer(context.Background(), testBusiness, "cust-1000000001"); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}

	listed, err := svc.ListCustomers(context.Background(), testBusiness)
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("customers remaining after delete: %d", len(listed))
	}
}
