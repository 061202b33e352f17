package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/handler"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/cache"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/observability"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
	"github.com/boddenberg/shop-billing-bfa-go/internal/port"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"go.uber.org/zap"
)

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestSyncMetrics(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/sync", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap domain.SyncMetrics
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode sync metrics: %v", err)
	}
	if snap.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0 on a fresh registry", snap.TotalRequests)
	}
}

// stubStore overrides only the store methods the create-bill path touches;
// anything else panics via the embedded nil interfaces.
type stubStore struct {
	port.LedgerStore
	port.BalanceStore
	port.CustomerStore
}

func (s stubStore) GetOrCreateCustomer(_ context.Context, businessID, name, phone string) (*domain.Customer, error) {
	return &domain.Customer{ID: "cust-1", BusinessID: businessID, Name: name, Phone: phone}, nil
}

func (s stubStore) CreateBill(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	cp := *bill
	return &cp, nil
}

func (s stubStore) SetBalanceIf(_ context.Context, _, _ string, _, _ money.Cents) error {
	return nil
}

func newTestRouter() http.Handler {
	store := stubStore{}
	billing := service.NewBillingService(
		store, store, store,
		cache.New[money.Cents](time.Minute),
		5*time.Second,
		observability.NewMetrics(),
		zap.NewNop(),
	)
	return handler.NewRouter(handler.Services{Billing: billing}, observability.NewMetrics(), zap.NewNop())
}

func TestCreateBill_ReturnsComputedTotals(t *testing.T) {
	router := newTestRouter()

	body := `{
		"customer_name": "Asha",
		"customer_phone": "9876543210",
		"date": "2026-08-31",
		"items": [{"no": 1, "item": "rice", "weight": 30, "rate": 50, "amount": 1500}],
		"delivery_charge": 50,
		"cleaning_charge": 20,
		"paid_amount": 1000,
		"payment_method": "cash"
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/businesses/biz-1/bills", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var bill domain.Bill
	if err := json.NewDecoder(rec.Body).Decode(&bill); err != nil {
		t.Fatalf("decode bill: %v", err)
	}
	if bill.TotalAmount != 157000 {
		t.Errorf("total_amount = %d, want 157000", bill.TotalAmount)
	}
	if bill.BalanceAmount != 57000 {
		t.Errorf("balance_amount = %d, want 57000", bill.BalanceAmount)
	}
}

func TestCreateBill_ValidationErrorIs400(t *testing.T) {
	router := newTestRouter()

	body := `{"customer_phone": "9876543210", "date": "2026-08-31"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/businesses/biz-1/bills", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBill_MalformedBodyIs400(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/businesses/biz-1/bills", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
