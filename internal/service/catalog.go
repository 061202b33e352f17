package service

import (
	"context"
	"strings"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var catalogTracer = otel.Tracer("service/catalog")

// CatalogService manages suppliers and products.
type CatalogService struct {
	suppliers port.SupplierStore
	products  port.ProductStore
	opTimeout time.Duration
	logger    *zap.Logger
}

func NewCatalogService(suppliers port.SupplierStore, products port.ProductStore, opTimeout time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		suppliers: suppliers,
		products:  products,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// GetOrCreateSupplier returns the supplier with this name, creating it on
// first use. Names are matched exactly after trimming whitespace.
func (s *CatalogService) GetOrCreateSupplier(ctx context.Context, businessID, name string) (*domain.Supplier, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetOrCreateSupplier")
	defer span.End()

	name = strings.TrimSpace(name)
	if businessID == "" {
		return nil, &domain.ErrValidation{Field: "business_id", Message: "required"}
	}
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.suppliers.GetOrCreateSupplier(ctx, businessID, name)
}

// ListSuppliers returns all suppliers of a business, sorted by name.
func (s *CatalogService) ListSuppliers(ctx context.Context, businessID string) ([]domain.Supplier, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListSuppliers")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.suppliers.ListSuppliers(ctx, businessID)
}

// SuggestSuppliers returns up to ten suppliers whose names start with the
// given prefix, for type-ahead completion. An empty prefix returns nothing.
func (s *CatalogService) SuggestSuppliers(ctx context.Context, businessID, prefix string) ([]domain.Supplier, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.SuggestSuppliers")
	defer span.End()

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []domain.Supplier{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.suppliers.SuggestSuppliers(ctx, businessID, prefix)
}

// DeleteSupplier removes a supplier and all their purchases.
func (s *CatalogService) DeleteSupplier(ctx context.Context, businessID, supplierID string) error {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.DeleteSupplier")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.suppliers.DeleteSupplier(ctx, businessID, supplierID); err != nil {
		return err
	}
	s.logger.Info("supplier deleted",
		zap.String("business_id", businessID),
		zap.String("supplier_id", supplierID),
	)
	return nil
}

// CreateProduct adds a product to the business catalog. Duplicate names are
// rejected.
func (s *CatalogService) CreateProduct(ctx context.Context, businessID, name string) (*domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreateProduct")
	defer span.End()

	name = strings.TrimSpace(name)
	if businessID == "" {
		return nil, &domain.ErrValidation{Field: "business_id", Message: "required"}
	}
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.products.CreateProduct(ctx, businessID, name)
}

// ListProducts returns all products of a business, sorted by name.
func (s *CatalogService) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.products.ListProducts(ctx, businessID)
}

// DeleteProduct removes a product from the catalog.
func (s *CatalogService) DeleteProduct(ctx context.Context, businessID, productID string) error {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.products.DeleteProduct(ctx, businessID, productID)
}
