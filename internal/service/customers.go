package service

import (
	"context"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/observability"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
	"github.com/boddenberg/shop-billing-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var customerTracer = otel.Tracer("service/customers")

// refreshConcurrency caps the parallel store reads of a bulk refresh.
const refreshConcurrency = 8

// CustomerService manages customer records and the bulk balance refresh.
type CustomerService struct {
	customers port.CustomerStore
	cache     port.Cache[money.Cents]
	opTimeout time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewCustomerService(
	customers port.CustomerStore,
	cache port.Cache[money.Cents],
	opTimeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customers: customers,
		cache:     cache,
		opTimeout: opTimeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// ListCustomers returns every customer of a business.
func (s *CustomerService) ListCustomers(ctx context.Context, businessID string) ([]domain.Customer, error) {
	ctx, span := customerTracer.Start(ctx, "CustomerService.ListCustomers")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.customers.ListCustomers(ctx, businessID)
}

// RefreshAll re-reads every customer of a business from the store and
// repopulates the balance cache. Reads fan out with bounded concurrency; the
// first failure cancels the rest.
func (s *CustomerService) RefreshAll(ctx context.Context, businessID string) ([]domain.Customer, error) {
	ctx, span := customerTracer.Start(ctx, "CustomerService.RefreshAll")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("refresh_customers", time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	listed, err := s.customers.ListCustomers(ctx, businessID)
	if err != nil {
		s.metrics.IncrStoreError("list_customers")
		return nil, err
	}

	refreshed := make([]domain.Customer, len(listed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for i, cust := range listed {
		i, cust := i, cust
		g.Go(func() error {
			fresh, err := s.customers.GetCustomerByPhone(gctx, businessID, cust.Phone)
			if err != nil {
				return err
			}
			s.cache.Set(balanceKey(businessID, fresh.Phone), fresh.Balance)
			refreshed[i] = *fresh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncrStoreError("refresh_customers")
		return nil, err
	}

	s.logger.Info("customer balances refreshed",
		zap.String("business_id", businessID),
		zap.Int("count", len(refreshed)),
	)
	return refreshed, nil
}

// DeleteCustomer removes a customer and all their bills.
func (s *CustomerService) DeleteCustomer(ctx context.Context, businessID, customerID string) error {
	ctx, span := customerTracer.Start(ctx, "CustomerService.DeleteCustomer")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.customers.DeleteCustomer(ctx, businessID, customerID); err != nil {
		s.metrics.IncrStoreError("delete_customer")
		return err
	}
	s.logger.Info("customer deleted with bills",
		zap.String("business_id", businessID),
		zap.String("customer_id", customerID),
	)
	return nil
}
