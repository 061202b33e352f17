package service

import (
	"context"
	"math"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var loadTracer = otel.Tracer("service/loads")

// LoadService records incoming stock loads: boxes and weights as delivered by
// a supplier, before and after unboxing.
type LoadService struct {
	loads     port.LoadStore
	opTimeout time.Duration
	logger    *zap.Logger
}

func NewLoadService(loads port.LoadStore, opTimeout time.Duration, logger *zap.Logger) *LoadService {
	return &LoadService{
		loads:     loads,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// CreateLoadEntry validates and records a load entry. The as-received box
// count and weight are required; the after-unboxing figures may be zero when
// the load has not been reweighed yet.
func (s *LoadService) CreateLoadEntry(ctx context.Context, businessID string, req *domain.LoadEntryRequest) (*domain.LoadEntry, error) {
	ctx, span := loadTracer.Start(ctx, "LoadService.CreateLoadEntry")
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
	if _, err := time.Parse("2006-01-02", req.EntryDate); err != nil {
		return nil, &domain.ErrValidation{Field: "entry_date", Message: "must be YYYY-MM-DD"}
	}
	if req.NoOfBoxes <= 0 {
		return nil, &domain.ErrValidation{Field: "no_of_boxes", Message: "must be a positive count"}
	}
	if math.IsNaN(req.QuantityWithBox) || math.IsInf(req.QuantityWithBox, 0) || req.QuantityWithBox <= 0 {
		return nil, &domain.ErrValidation{Field: "quantity_with_box", Message: "must be a positive quantity"}
	}
	if req.NoOfBoxesAfter < 0 {
		return nil, &domain.ErrValidation{Field: "no_of_boxes_after", Message: "must not be negative"}
	}
	if math.IsNaN(req.QuantityAfterBox) || math.IsInf(req.QuantityAfterBox, 0) || req.QuantityAfterBox < 0 {
		return nil, &domain.ErrValidation{Field: "quantity_after_box", Message: "must be a finite, non-negative quantity"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	created, err := s.loads.CreateLoadEntry(ctx, &domain.LoadEntry{
		ID:               uuid.New().String(),
		BusinessID:       businessID,
		EntryDate:        req.EntryDate,
		NoOfBoxes:        req.NoOfBoxes,
		QuantityWithBox:  req.QuantityWithBox,
		NoOfBoxesAfter:   req.NoOfBoxesAfter,
		QuantityAfterBox: req.QuantityAfterBox,
		ProductID:        req.ProductID,
		SupplierID:       req.SupplierID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("load entry recorded",
		zap.String("business_id", businessID),
		zap.String("entry_id", created.ID),
		zap.String("supplier_id", created.SupplierID),
		zap.Int("no_of_boxes", created.NoOfBoxes),
	)
	return created, nil
}

// ListLoadEntries returns a page of load entries, newest first.
func (s *LoadService) ListLoadEntries(ctx context.Context, businessID string, page, pageSize int) ([]domain.LoadEntry, error) {
	ctx, span := loadTracer.Start(ctx, "LoadService.ListLoadEntries")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.loads.ListLoadEntries(ctx, businessID, page, pageSize)
}

// DeleteLoadEntry removes a load entry.
func (s *LoadService) DeleteLoadEntry(ctx context.Context, businessID, entryID string) error {
	ctx, span := loadTracer.Start(ctx, "LoadService.DeleteLoadEntry")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.loads.DeleteLoadEntry(ctx, businessID, entryID)
}
