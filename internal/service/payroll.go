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

var payrollTracer = otel.Tracer("service/payroll")

// PayrollService records salary payouts.
type PayrollService struct {
	salaries  port.SalaryStore
	opTimeout time.Duration
	logger    *zap.Logger
}

func NewPayrollService(salaries port.SalaryStore, opTimeout time.Duration, logger *zap.Logger) *PayrollService {
	return &PayrollService{
		salaries:  salaries,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// CreateSalaryEntry validates and records a salary payout.
func (s *PayrollService) CreateSalaryEntry(ctx context.Context, businessID string, req *domain.SalaryRequest) (*domain.SalaryEntry, error) {
	ctx, span := payrollTracer.Start(ctx, "PayrollService.CreateSalaryEntry")
	defer span.End()

	if businessID == "" {
		return nil, &domain.ErrValidation{Field: "business_id", Message: "required"}
	}
	if _, err := time.Parse("2006-01-02", req.SalaryDate); err != nil {
		return nil, &domain.ErrValidation{Field: "salary_date", Message: "must be YYYY-MM-DD"}
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be a positive amount"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	created, err := s.salaries.CreateSalaryEntry(ctx, &domain.SalaryEntry{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		SalaryDate: req.SalaryDate,
		Amount:     money.ToCents(req.Amount),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("salary recorded",
		zap.String("business_id", businessID),
		zap.String("entry_id", created.ID),
		zap.String("amount", money.Format(created.Amount)),
	)
	return created, nil
}

// ListSalaryEntries returns all salary entries, newest first.
func (s *PayrollService) ListSalaryEntries(ctx context.Context, businessID string) ([]domain.SalaryEntry, error) {
	ctx, span := payrollTracer.Start(ctx, "PayrollService.ListSalaryEntries")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.salaries.ListSalaryEntries(ctx, businessID)
}

// DeleteSalaryEntry removes a salary entry.
func (s *PayrollService) DeleteSalaryEntry(ctx context.Context, businessID, entryID string) error {
	ctx, span := payrollTracer.Start(ctx, "PayrollService.DeleteSalaryEntry")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.salaries.DeleteSalaryEntry(ctx, businessID, entryID)
}
