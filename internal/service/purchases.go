package service

import (
	"context"
	"math"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
	"github.com/boddenberg/shop-billing-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var purchaseTracer = otel.Tracer("service/purchases")

// PurchaseService records stock purchases against suppliers and products.
type PurchaseService struct {
	purchases port.PurchaseStore
	opTimeout time.Duration
	logger    *zap.Logger
}

func NewPurchaseService(purchases port.PurchaseStore, opTimeout time.Duration, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// CreatePurchase validates and records a purchase. The price is converted to
// cents at this boundary.
func (s *PurchaseService) CreatePurchase(ctx context.Context, businessID string, req *domain.PurchaseRequest) (*domain.Purchase, error) {
	ctx, span := purchaseTracer.Start(ctx, "PurchaseService.CreatePurchase")
	defer span.End()

	if businessID == "" {
		return nil, &domain.ErrValidation{Field: "business_id", Message: "required"}
	}
	if req.ProductID == "" {
		return nil, &domain.ErrValidation{Field: "product_id", Message: "required"}
	}
	if req.SupplierID == "" {
		return nil, &domain.ErrValidation{Field: "supplier_id", Message: "required"}
	}
	if _, err := time.Parse("2006-01-02", req.PurchaseDate); err != nil {
		return nil, &domain.ErrValidation{Field: "purchase_date", Message: "must be YYYY-MM-DD"}
	}
	if math.IsNaN(req.QuantityKg) || math.IsInf(req.QuantityKg, 0) || req.QuantityKg <= 0 {
		return nil, &domain.ErrValidation{Field: "quantity_kg", Message: "must be a positive quantity"}
	}
	if math.IsNaN(req.PricePerKg) || math.IsInf(req.PricePerKg, 0) || req.PricePerKg < 0 {
		return nil, &domain.ErrValidation{Field: "price_per_kg", Message: "must be a finite, non-negative amount"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	created, err := s.purchases.CreatePurchase(ctx, &domain.Purchase{
		ID:           uuid.New().String(),
		BusinessID:   businessID,
		PurchaseDate: req.PurchaseDate,
		ProductID:    req.ProductID,
		SupplierID:   req.SupplierID,
		QuantityKg:   req.QuantityKg,
		PricePerKg:   money.ToCents(req.PricePerKg),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase recorded",
		zap.String("business_id", businessID),
		zap.String("purchase_id", created.ID),
		zap.String("supplier_id", created.SupplierID),
	)
	return created, nil
}

// ListPurchases returns a page of purchases, newest first.
func (s *PurchaseService) ListPurchases(ctx context.Context, businessID string, page, pageSize int) ([]domain.Purchase, error) {
	ctx, span := purchaseTracer.Start(ctx, "PurchaseService.ListPurchases")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.purchases.ListPurchases(ctx, businessID, page, pageSize)
}

// DeletePurchase removes a purchase record.
func (s *PurchaseService) DeletePurchase(ctx context.Context, businessID, purchaseID string) error {
	ctx, span := purchaseTracer.Start(ctx, "PurchaseService.DeletePurchase")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.purchases.DeletePurchase(ctx, businessID, purchaseID)
}
