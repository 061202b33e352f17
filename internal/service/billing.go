package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/observability"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
	"github.com/boddenberg/shop-billing-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var billingTracer = otel.Tracer("service/billing")

// balanceWriteAttempts bounds how many times a conditional balance write is
// rebased and retried after losing a race before the operation gives up with
// a consistency error.
const balanceWriteAttempts = 3

// BillingService owns the bill lifecycle and keeps the customer account
// balance synchronized with it. The balance is always re-read from the store
// before a computation; cached values are only served on the read path.
type BillingService struct {
	ledger    port.LedgerStore
	balances  port.BalanceStore
	customers port.CustomerStore
	cache     port.Cache[money.Cents]
	opTimeout time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewBillingService(
	ledger port.LedgerStore,
	balances port.BalanceStore,
	customers port.CustomerStore,
	cache port.Cache[money.Cents],
	opTimeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		ledger:    ledger,
		balances:  balances,
		customers: customers,
		cache:     cache,
		opTimeout: opTimeout,
		metrics:   metrics,
		logger:    logger,
	}
}

func balanceKey(businessID, phone string) string {
	return businessID + ":" + phone
}

// CreateBill validates the request, computes totals against the customer's
// current balance, persists the bill, and then propagates the new balance to
// the customer account with a conditional write.
func (s *BillingService) CreateBill(ctx context.Context, businessID string, req *domain.BillRequest) (*domain.Bill, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.CreateBill")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("create_bill", time.Since(start))
	}()

	if err := validateBillRequest(businessID, req); err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	// The customer's stored balance is the only previous-balance input the
	// computation accepts. Values cached earlier in the session are ignored.
	cust, err := s.customers.GetOrCreateCustomer(ctx, businessID, req.CustomerName, req.CustomerPhone)
	if err != nil {
		s.metrics.IncrStoreError("get_or_create_customer")
		s.metrics.IncrRequest("error")
		return nil, err
	}

	totals := money.ComputeTotals(billInput(cust.Balance, req))
	bill := buildBill(uuid.New().String(), businessID, req, totals)

	created, err := s.ledger.CreateBill(ctx, bill)
	if err != nil {
		// Nothing was written; the caller can simply retry.
		s.metrics.IncrStoreError("create_bill")
		s.metrics.IncrRequest("error")
		return nil, err
	}

	final, err := s.writeBillBalance(ctx, "create_bill", created, req, cust, cust.Balance,
		func(current money.Cents) money.Cents { return current })
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	s.cache.Delete(balanceKey(businessID, cust.Phone))
	s.metrics.IncrRequest("success")
	s.logger.Info("bill created",
		zap.String("business_id", businessID),
		zap.String("bill_id", final.ID),
		zap.String("customer_phone", cust.Phone),
		zap.String("balance", money.Format(final.BalanceAmount)),
	)
	return final, nil
}

// UpdateBill overwrites a bill's monetary fields and re-derives the customer
// balance as if the bill had been created with the new figures: the previous
// balance for the recomputation is the current balance minus the bill's old
// contribution.
func (s *BillingService) UpdateBill(ctx context.Context, businessID, billID string, req *domain.BillRequest) (*domain.Bill, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.UpdateBill")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("update_bill", time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	old, err := s.ledger.GetBill(ctx, businessID, billID)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	// The bill's customer identity is immutable. Callers may omit the
	// fields; changing them is rejected.
	if req.CustomerName == "" {
		req.CustomerName = old.CustomerName
	}
	if req.CustomerPhone == "" {
		req.CustomerPhone = old.CustomerPhone
	}
	if req.Date == "" {
		req.Date = old.Date
	}
	if req.CustomerPhone != old.CustomerPhone {
		s.metrics.IncrRequest("error")
		return nil, &domain.ErrValidation{Field: "customer_phone", Message: "cannot be changed on an existing bill"}
	}

	if err := validateBillRequest(businessID, req); err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	cust, err := s.customers.GetCustomerByPhone(ctx, businessID, old.CustomerPhone)
	if err != nil {
		s.metrics.IncrStoreError("get_customer")
		s.metrics.IncrRequest("error")
		return nil, err
	}

	rebase := func(current money.Cents) money.Cents {
		return money.ClampMin(0, current-old.BalanceAmount)
	}
	totals := money.ComputeTotals(billInput(rebase(cust.Balance), req))
	bill := buildBill(old.ID, businessID, req, totals)
	bill.CreatedAt = old.CreatedAt

	updated, err := s.ledger.UpdateBill(ctx, bill)
	if err != nil {
		// Balance untouched; the old bill still stands.
		s.metrics.IncrStoreError("update_bill")
		s.metrics.IncrRequest("error")
		return nil, err
	}

	final, err := s.writeBillBalance(ctx, "update_bill", updated, req, cust, cust.Balance, rebase)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	s.cache.Delete(balanceKey(businessID, cust.Phone))
	s.metrics.IncrRequest("success")
	s.logger.Info("bill updated",
		zap.String("business_id", businessID),
		zap.String("bill_id", final.ID),
		zap.String("balance", money.Format(final.BalanceAmount)),
	)
	return final, nil
}

// DeleteBill removes a bill and subtracts its balance contribution from the
// customer account. A missing customer is logged and skipped: the bill is
// still deleted, only the adjustment is dropped.
func (s *BillingService) DeleteBill(ctx context.Context, businessID, billID string) error {
	ctx, span := billingTracer.Start(ctx, "BillingService.DeleteBill")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("delete_bill", time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	bill, err := s.ledger.GetBill(ctx, businessID, billID)
	if err != nil {
		s.metrics.IncrRequest("error")
		return err
	}

	cust, err := s.customers.GetCustomerByPhone(ctx, businessID, bill.CustomerPhone)
	var notFound *domain.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		s.logger.Warn("deleting bill without balance adjustment: customer not found",
			zap.String("business_id", businessID),
			zap.String("bill_id", billID),
			zap.String("customer_phone", bill.CustomerPhone),
		)
		cust = nil
	case err != nil:
		s.metrics.IncrStoreError("get_customer")
		s.metrics.IncrRequest("error")
		return err
	}

	if err := s.ledger.DeleteBill(ctx, businessID, billID); err != nil {
		s.metrics.IncrStoreError("delete_bill")
		s.metrics.IncrRequest("error")
		return err
	}

	if cust != nil {
		if err := s.subtractBalance(ctx, "delete_bill", billID, cust, bill.BalanceAmount); err != nil {
			s.metrics.IncrRequest("error")
			return err
		}
		s.cache.Delete(balanceKey(businessID, cust.Phone))
	}

	s.metrics.IncrRequest("success")
	s.logger.Info("bill deleted",
		zap.String("business_id", businessID),
		zap.String("bill_id", billID),
	)
	return nil
}

// GetBill fetches a single bill.
func (s *BillingService) GetBill(ctx context.Context, businessID, billID string) (*domain.Bill, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.GetBill")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.ledger.GetBill(ctx, businessID, billID)
}

// ListBills returns a page of bills, newest first.
func (s *BillingService) ListBills(ctx context.Context, businessID string, page, pageSize int) ([]domain.Bill, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.ListBills")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.ledger.ListBills(ctx, businessID, page, pageSize)
}

// ListBillsByPhone returns all of one customer's bills, newest first.
func (s *BillingService) ListBillsByPhone(ctx context.Context, businessID, phone string) ([]domain.Bill, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.ListBillsByPhone")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.ledger.ListBillsByPhone(ctx, businessID, phone)
}

// GetBalanceByPhone returns the customer's authoritative account balance,
// serving from the TTL cache when possible.
func (s *BillingService) GetBalanceByPhone(ctx context.Context, businessID, phone string) (*domain.BalanceView, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.GetBalanceByPhone")
	defer span.End()

	key := balanceKey(businessID, phone)
	if balance, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("balance")
		return &domain.BalanceView{CustomerPhone: phone, Balance: balance, Source: domain.BalanceSourceAccount}, nil
	}
	s.metrics.IncrCacheMiss("balance")

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	cust, err := s.customers.GetCustomerByPhone(ctx, businessID, phone)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, cust.Balance)
	return &domain.BalanceView{CustomerPhone: phone, Balance: cust.Balance, Source: domain.BalanceSourceAccount}, nil
}

// LatestBalanceByPhone reports the balance recorded on the customer's most
// recent bill. Informational only; the account balance is authoritative. A
// customer with no bills reads as zero.
func (s *BillingService) LatestBalanceByPhone(ctx context.Context, businessID, phone string) (*domain.BalanceView, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.LatestBalanceByPhone")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	bill, err := s.ledger.LatestBillByPhone(ctx, businessID, phone)
	var notFound *domain.ErrNotFound
	if errors.As(err, &notFound) {
		return &domain.BalanceView{CustomerPhone: phone, Balance: 0, Source: domain.BalanceSourceLatestBill}, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.BalanceView{CustomerPhone: phone, Balance: bill.BalanceAmount, Source: domain.BalanceSourceLatestBill}, nil
}

// RefreshCustomer re-reads one customer from the store and repopulates the
// balance cache.
func (s *BillingService) RefreshCustomer(ctx context.Context, businessID, phone string) (*domain.Customer, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.RefreshCustomer")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	cust, err := s.customers.GetCustomerByPhone(ctx, businessID, phone)
	if err != nil {
		return nil, err
	}
	s.cache.Set(balanceKey(businessID, phone), cust.Balance)
	return cust, nil
}

// writeBillBalance propagates a bill's computed balance to the customer
// account. The write is conditional on the balance the computation was based
// on; when a concurrent writer moved it, the bill is recomputed from the
// balance they left behind (via prevFor), rewritten, and the write retried.
// Any other failure leaves a persisted bill whose balance never landed, which
// surfaces as *domain.ErrConsistency.
func (s *BillingService) writeBillBalance(
	ctx context.Context,
	op string,
	bill *domain.Bill,
	req *domain.BillRequest,
	cust *domain.Customer,
	expected money.Cents,
	prevFor func(current money.Cents) money.Cents,
) (*domain.Bill, error) {
	for attempt := 0; attempt < balanceWriteAttempts; attempt++ {
		err := s.balances.SetBalanceIf(ctx, bill.BusinessID, cust.ID, expected, bill.BalanceAmount)
		if err == nil {
			return bill, nil
		}

		var conflict *domain.ErrConflict
		if !errors.As(err, &conflict) {
			return nil, s.consistencyFailure(op, bill.ID, cust, bill.BalanceAmount, err)
		}
		s.metrics.IncrBalanceConflict(op)

		current, err := s.balances.GetBalance(ctx, bill.BusinessID, cust.ID)
		if err != nil {
			return nil, s.consistencyFailure(op, bill.ID, cust, bill.BalanceAmount, err)
		}
		s.logger.Warn("balance conflict, rebasing bill",
			zap.String("operation", op),
			zap.String("bill_id", bill.ID),
			zap.String("expected", money.Format(expected)),
			zap.String("current", money.Format(current)),
		)

		totals := money.ComputeTotals(billInput(prevFor(current), req))
		applyTotals(bill, totals)
		rebased, err := s.ledger.UpdateBill(ctx, bill)
		if err != nil {
			return nil, s.consistencyFailure(op, bill.ID, cust, bill.BalanceAmount, err)
		}
		bill = rebased
		expected = current
	}
	return nil, s.consistencyFailure(op, bill.ID, cust, bill.BalanceAmount,
		fmt.Errorf("conditional balance write lost %d consecutive races", balanceWriteAttempts))
}

// subtractBalance removes a deleted bill's contribution from the customer
// balance, clamped at zero, retrying through conflicts like writeBillBalance
// but without a bill to rewrite.
func (s *BillingService) subtractBalance(ctx context.Context, op, billID string, cust *domain.Customer, amount money.Cents) error {
	expected := cust.Balance
	for attempt := 0; attempt < balanceWriteAttempts; attempt++ {
		next := money.ClampMin(0, expected-amount)
		err := s.balances.SetBalanceIf(ctx, cust.BusinessID, cust.ID, expected, next)
		if err == nil {
			return nil
		}

		var conflict *domain.ErrConflict
		if !errors.As(err, &conflict) {
			return s.consistencyFailure(op, billID, cust, next, err)
		}
		s.metrics.IncrBalanceConflict(op)

		current, err := s.balances.GetBalance(ctx, cust.BusinessID, cust.ID)
		if err != nil {
			return s.consistencyFailure(op, billID, cust, next, err)
		}
		expected = current
	}
	return s.consistencyFailure(op, billID, cust, money.ClampMin(0, expected-amount),
		fmt.Errorf("conditional balance write lost %d consecutive races", balanceWriteAttempts))
}

func (s *BillingService) consistencyFailure(op, billID string, cust *domain.Customer, attempted money.Cents, err error) error {
	s.metrics.IncrConsistencyFailure(op)
	s.logger.Error("balance propagation failed, reconciliation required",
		zap.String("operation", op),
		zap.String("bill_id", billID),
		zap.String("customer_id", cust.ID),
		zap.String("customer_phone", cust.Phone),
		zap.String("attempted_balance", money.Format(attempted)),
		zap.Error(err),
	)
	return &domain.ErrConsistency{
		BillID:           billID,
		CustomerKey:      cust.Phone,
		AttemptedBalance: attempted,
		Err:              err,
	}
}

// billInput converts a request's decimal amounts to cents once and pairs them
// with the authoritative previous balance.
func billInput(prev money.Cents, req *domain.BillRequest) money.BillInput {
	var items money.Cents
	for _, it := range req.Items {
		items += money.ToCents(it.Amount)
	}
	return money.BillInput{
		PreviousBalance: prev,
		ItemsTotal:      items,
		DeliveryCharge:  money.ToCents(req.DeliveryCharge),
		CleaningCharge:  money.ToCents(req.CleaningCharge),
		PaidAmount:      money.ToCents(req.PaidAmount),
	}
}

func buildBill(id, businessID string, req *domain.BillRequest, totals money.Totals) *domain.Bill {
	items := make([]domain.BillItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.BillItem{
			No:     it.No,
			Item:   it.Item,
			Weight: it.Weight,
			Rate:   money.ToCents(it.Rate),
			Amount: money.ToCents(it.Amount),
		})
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentCash
	}
	bill := &domain.Bill{
		ID:             id,
		BusinessID:     businessID,
		BillNumber:     req.BillNumber,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
		Date:           req.Date,
		Items:          items,
		PaidAmount:     money.ToCents(req.PaidAmount),
		DeliveryCharge: money.ToCents(req.DeliveryCharge),
		CleaningCharge: money.ToCents(req.CleaningCharge),
		PaymentMethod:  method,
		UPIType:        req.UPIType,
		BankName:       req.BankName,
		CheckNumber:    req.CheckNumber,
		CashAmount:     money.ToCents(req.CashAmount),
		GpayAmount:     money.ToCents(req.GpayAmount),
	}
	applyTotals(bill, totals)
	return bill
}

func applyTotals(bill *domain.Bill, totals money.Totals) {
	bill.TotalAmount = totals.TotalAmount
	bill.BalanceAmount = totals.NewBalance
	bill.AdvanceAmount = totals.AdvanceAmount
}

func validateBillRequest(businessID string, req *domain.BillRequest) error {
	if businessID == "" {
		return &domain.ErrValidation{Field: "business_id", Message: "required"}
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return &domain.ErrValidation{Field: "customer_name", Message: "required"}
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return &domain.ErrValidation{Field: "customer_phone", Message: "required"}
	}
	if req.Date == "" {
		return &domain.ErrValidation{Field: "date", Message: "required"}
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return &domain.ErrValidation{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	switch req.PaymentMethod {
	case "", domain.PaymentCash, domain.PaymentUPI, domain.PaymentCheck, domain.PaymentCashGpay:
	default:
		return &domain.ErrValidation{Field: "payment_method", Message: "unknown payment method"}
	}
	if err := validateAmount("paid_amount", req.PaidAmount); err != nil {
		return err
	}
	if err := validateAmount("delivery_charge", req.DeliveryCharge); err != nil {
		return err
	}
	if err := validateAmount("cleaning_charge", req.CleaningCharge); err != nil {
		return err
	}
	if err := validateAmount("cash_amount", req.CashAmount); err != nil {
		return err
	}
	if err := validateAmount("gpay_amount", req.GpayAmount); err != nil {
		return err
	}
	for i, it := range req.Items {
		if err := validateAmount(fmt.Sprintf("items[%d].amount", i), it.Amount); err != nil {
			return err
		}
		if err := validateAmount(fmt.Sprintf("items[%d].rate", i), it.Rate); err != nil {
			return err
		}
	}
	return nil
}

func validateAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &domain.ErrValidation{Field: field, Message: "must be a finite amount"}
	}
	if v < 0 {
		return &domain.ErrValidation{Field: field, Message: "must not be negative"}
	}
	return nil
}
