package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/cache"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/observability"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"go.uber.org/zap"
)

const testBusiness = "biz-1"

// fakeBackend is an in-memory implementation of the ledger, balance and
// customer stores with hooks for injecting balance-write failures and
// concurrent-writer races.
type fakeBackend struct {
	mu        sync.Mutex
	bills     map[string]*domain.Bill
	customers map[string]*domain.Customer // keyed by phone

	// balanceWriteErr, when set, fails every conditional balance write.
	balanceWriteErr error
	// driftBeforeWrite runs once before the next conditional write to
	// simulate a concurrent writer moving the balance.
	driftBeforeWrite func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bills:     make(map[string]*domain.Bill),
		customers: make(map[string]*domain.Customer),
	}
}

func (f *fakeBackend) CreateBill(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *bill
	cp.CreatedAt = time.Now()
	f.bills[bill.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeBackend) UpdateBill(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bills[bill.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: bill.ID}
	}
	cp := *bill
	f.bills[bill.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeBackend) DeleteBill(_ context.Context, _, billID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bills, billID)
	return nil
}

func (f *fakeBackend) GetBill(_ context.Context, _, billID string) (*domain.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bills[billID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBackend) ListBills(_ context.Context, _ string, _, _ int) ([]domain.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Bill, 0, len(f.bills))
	for _, b := range f.bills {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBackend) ListBillsByPhone(_ context.Context, _, phone string) ([]domain.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Bill
	for _, b := range f.bills {
		if b.CustomerPhone == phone {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBackend) LatestBillByPhone(ctx context.Context, businessID, phone string) (*domain.Bill, error) {
	bills, _ := f.ListBillsByPhone(ctx, businessID, phone)
	if len(bills) == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: phone}
	}
	latest := bills[0]
	for _, b := range bills[1:] {
		if b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	return &latest, nil
}

func (f *fakeBackend) GetOrCreateCustomer(_ context.Context, businessID, name, phone string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.customers[phone]; ok {
		cp := *c
		return &cp, nil
	}
	c := &domain.Customer{
		ID:         "cust-" + phone,
		BusinessID: businessID,
		Name:       name,
		Phone:      phone,
	}
	f.customers[phone] = c
	cp := *c
	return &cp, nil
}

func (f *fakeBackend) GetCustomerByPhone(_ context.Context, _, phone string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[phone]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: phone}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBackend) ListCustomers(_ context.Context, _ string) ([]domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeBackend) DeleteCustomer(_ context.Context, _, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for phone, c := range f.customers {
		if c.ID == customerID {
			delete(f.customers, phone)
		}
	}
	return nil
}

func (f *fakeBackend) byID(customerID string) *domain.Customer {
	for _, c := range f.customers {
		if c.ID == customerID {
			return c
		}
	}
	return nil
}

func (f *fakeBackend) GetBalance(_ context.Context, _, customerID string) (money.Cents, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.byID(customerID)
	if c == nil {
		return 0, &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	return c.Balance, nil
}

func (f *fakeBackend) SetBalance(_ context.Context, _, customerID string, balance money.Cents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.byID(customerID)
	if c == nil {
		return &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	c.Balance = balance
	return nil
}

func (f *fakeBackend) SetBalanceIf(_ context.Context, _, customerID string, expected, next money.Cents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.driftBeforeWrite != nil {
		drift := f.driftBeforeWrite
		f.driftBeforeWrite = nil
		drift()
	}
	if f.balanceWriteErr != nil {
		return f.balanceWriteErr
	}
	c := f.byID(customerID)
	if c == nil {
		return &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	if c.Balance != expected {
		return &domain.ErrConflict{Resource: "customer_balance",
			Message: fmt.Sprintf("expected %s, found %s", money.Format(expected), money.Format(c.Balance))}
	}
	c.Balance = next
	return nil
}

// seedCustomer installs a customer with a given balance.
func (f *fakeBackend) seedCustomer(phone string, balance money.Cents) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[phone] = &domain.Customer{
		ID:         "cust-" + phone,
		BusinessID: testBusiness,
		Name:       "Seeded",
		Phone:      phone,
		Balance:    balance,
	}
}

func newBillingService(f *fakeBackend) *service.BillingService {
	return service.NewBillingService(
		f, f, f,
		cache.New[money.Cents](time.Minute),
		5*time.Second,
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func billRequest() *domain.BillRequest {
	return &domain.BillRequest{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Date:          "2026-08-31",
		PaymentMethod: domain.PaymentCash,
	}
}

func TestCreateBill_NewCustomerWithCharges(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	req := billRequest()
	req.Items = []domain.BillItemRequest{{No: 1, Item: "rice", Weight: 30, Rate: 50, Amount: 1500}}
	req.DeliveryCharge = 50
	req.CleaningCharge = 20
	req.PaidAmount = 1000

	bill, err := svc.CreateBill(context.Background(), testBusiness, req)
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.TotalAmount != 157000 {
		t.Errorf("TotalAmount = %d, want 157000", bill.TotalAmount)
	}
	if bill.BalanceAmount != 57000 {
		t.Errorf("BalanceAmount = %d, want 57000", bill.BalanceAmount)
	}
	if bill.AdvanceAmount != 0 {
		t.Errorf("AdvanceAmount = %d, want 0", bill.AdvanceAmount)
	}

	cust, err := f.GetCustomerByPhone(context.Background(), testBusiness, req.CustomerPhone)
	if err != nil {
		t.Fatalf("customer not created: %v", err)
	}
	if cust.Balance != 57000 {
		t.Errorf("customer balance = %d, want 57000", cust.Balance)
	}
}

func TestCreateBill_OverpaymentBecomesAdvance(t *testing.T) {
	f := newFakeBackend()
	f.seedCustomer("9876543210", 57000)
	svc := newBillingService(f)

	req := billRequest()
	req.PaidAmount = 600

	bill, err := svc.CreateBill(context.Background(), testBusiness, req)
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.BalanceAmount != 0 {
		t.Errorf("BalanceAmount = %d, want 0", bill.BalanceAmount)
	}
	if bill.AdvanceAmount != 3000 {
		t.Errorf("AdvanceAmount = %d, want 3000", bill.AdvanceAmount)
	}

	cust, _ := f.GetCustomerByPhone(context.Background(), testBusiness, req.CustomerPhone)
	if cust.Balance != 0 {
		t.Errorf("customer balance = %d, want 0", cust.Balance)
	}
}

func TestDeleteBill_ReversesBalanceContribution(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	req := billRequest()
	req.Items = []domain.BillItemRequest{{No: 1, Item: "rice", Amount: 300}}

	bill, err := svc.CreateBill(context.Background(), testBusiness, req)
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.BalanceAmount != 30000 {
		t.Fatalf("BalanceAmount = %d, want 30000", bill.BalanceAmount)
	}

	if err := svc.DeleteBill(context.Background(), testBusiness, bill.ID); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}

	if _, err := f.GetBill(context.Background(), testBusiness, bill.ID); err == nil {
		t.Error("bill still present after delete")
	}
	cust, _ := f.GetCustomerByPhone(context.Background(), testBusiness, req.CustomerPhone)
	if cust.Balance != 0 {
		t.Errorf("customer balance = %d, want 0", cust.Balance)
	}
}

func TestDeleteBill_CustomerMissingSkipsAdjustment(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	req := billRequest()
	req.Items = []domain.BillItemRequest{{No: 1, Item: "rice", Amount: 100}}
	bill, err := svc.CreateBill(context.Background(), testBusiness, req)
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	f.mu.Lock()
	delete(f.customers, req.CustomerPhone)
	f.mu.Unlock()

	if err := svc.DeleteBill(context.Background(), testBusiness, bill.ID); err != nil {
		t.Fatalf("DeleteBill with missing customer: %v", err)
	}
	if _, err := f.GetBill(context.Background(), testBusiness, bill.ID); err == nil {
		t.Error("bill still present after delete")
	}
}

func TestUpdateBill_OverwritesOldContribution(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	req := billRequest()
	req.Items = []domain.BillItemRequest{{No: 1, Item: "rice", Amount: 200}}
	bill, err := svc.CreateBill(context.Background(), testBusiness, req)
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.BalanceAmount != 20000 {
		t.Fatalf("initial BalanceAmount = %d, want 20000", bill.BalanceAmount)
	}

	upd := billRequest()
	upd.Items = []domain.BillItemRequest{{No: 1, Item: "rice", Amount: 350}}
	updated, err := svc.UpdateBill(context.Background(), testBusiness, bill.ID, upd)
	if err != nil {
		t.Fatalf("UpdateBill: %v", err)
	}
	if updated.BalanceAmount != 35000 {
		t.Errorf("updated BalanceAmount = %d, want 35000", updated.BalanceAmount)
	}

	// The customer balance moves by exactly the delta between the old and
	// new figures.
	cust, _ := f.GetCustomerByPhone(context.Background(), testBusiness, req.CustomerPhone)
	if cust.Balance != 35000 {
		t.Errorf("customer balance = %d, want 35000", cust.Balance)
	}
}

func TestUpdateBill_RejectsCustomerChange(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	bill, err := svc.CreateBill(context.Background(), testBusiness, billRequest())
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	upd := billRequest()
	upd.CustomerPhone = "1112223334"
	_, err = svc.UpdateBill(context.Background(), testBusiness, bill.ID, upd)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateBill_ValidationRejects(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	cases := []struct {
		name   string
		mutate func(*domain.BillRequest)
	}{
		{"missing customer name", func(r *domain.BillRequest) { r.CustomerName = "  " }},
		{"missing phone", func(r *domain.BillRequest) { r.CustomerPhone = "" }},
		{"missing date", func(r *domain.BillRequest) { r.Date = "" }},
		{"malformed date", func(r *domain.BillRequest) { r.Date = "31-08-2026" }},
		{"negative paid amount", func(r *domain.BillRequest) { r.PaidAmount = -1 }},
		{"negative delivery charge", func(r *domain.BillRequest) { r.DeliveryCharge = -0.5 }},
		{"unknown payment method", func(r *domain.BillRequest) { r.PaymentMethod = "barter" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := billRequest()
			tc.mutate(req)
			_, err := svc.CreateBill(context.Background(), testBusiness, req)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	if len(f.bills) != 0 {
		t.Errorf("rejected requests wrote %d bills", len(f.bills))
	}
}

func TestCreateBill_BalanceWriteFailureIsConsistencyError(t *testing.T) {
	f := newFakeBackend()
	f.balanceWriteErr = errors.New("connection reset")
	svc := newBillingService(f)

	req := billRequest()
	req.Items = []domain.BillItemRequest{{No: 1, Item: "rice", Amount: 100}}

	_, err := svc.CreateBill(context.Background(), testBusiness, req)
	var cerr *domain.ErrConsistency
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want ErrConsistency", err)
	}
	if cerr.CustomerKey != req.CustomerPhone {
		t.Errorf("CustomerKey = %q, want %q", cerr.CustomerKey, req.CustomerPhone)
	}
	if cerr.AttemptedBalance != 10000 {
		t.Errorf("AttemptedBalance = %d, want 10000", cerr.AttemptedBalance)
	}

	// The bill write succeeded before propagation failed; it must remain
	// for reconciliation, identified by the error.
	if _, gerr := f.GetBill(context.Background(), testBusiness, cerr.BillID); gerr != nil {
		t.Errorf("bill %s not found after consistency failure: %v", cerr.BillID, gerr)
	}
}

func TestCreateBill_ConflictRebasesOnFreshBalance(t *testing.T) {
	f := newFakeBackend()
	f.seedCustomer("9876543210", 0)
	// A concurrent writer moves the balance to 100.00 just before the
	// conditional write, invalidating the expected value of 0.
	f.driftBeforeWrite = func() {
		f.customers["9876543210"].Balance = 10000
	}
	svc := newBillingService(f)

	req := billRequest()
	req.Items = []domain.BillItemRequest{{No: 1, Item: "rice", Amount: 100}}

	bill, err := svc.CreateBill(context.Background(), testBusiness, req)
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	// Recomputed from the fresh balance: 100.00 previous + 100.00 items.
	if bill.BalanceAmount != 20000 {
		t.Errorf("BalanceAmount = %d, want 20000 after rebase", bill.BalanceAmount)
	}
	cust, _ := f.GetCustomerByPhone(context.Background(), testBusiness, req.CustomerPhone)
	if cust.Balance != 20000 {
		t.Errorf("customer balance = %d, want 20000", cust.Balance)
	}
	stored, _ := f.GetBill(context.Background(), testBusiness, bill.ID)
	if stored.BalanceAmount != bill.BalanceAmount {
		t.Errorf("stored bill balance %d != returned %d", stored.BalanceAmount, bill.BalanceAmount)
	}
}

func TestGetBalanceByPhone_CachesAccountBalance(t *testing.T) {
	f := newFakeBackend()
	f.seedCustomer("9876543210", 4200)
	svc := newBillingService(f)

	view, err := svc.GetBalanceByPhone(context.Background(), testBusiness, "9876543210")
	if err != nil {
		t.Fatalf("GetBalanceByPhone: %v", err)
	}
	if view.Balance != 4200 || view.Source != domain.BalanceSourceAccount {
		t.Errorf("view = %+v, want balance 4200 from account", view)
	}

	// Second read must come from the cache even if the store changes
	// underneath (the TTL bounds the staleness).
	f.customers["9876543210"].Balance = 9999
	view, err = svc.GetBalanceByPhone(context.Background(), testBusiness, "9876543210")
	if err != nil {
		t.Fatalf("GetBalanceByPhone: %v", err)
	}
	if view.Balance != 4200 {
		t.Errorf("cached balance = %d, want 4200", view.Balance)
	}
}

func TestRefreshCustomer_RepopulatesBalanceCache(t *testing.T) {
	f := newFakeBackend()
	f.seedCustomer("9876543210", 4200)
	balances := cache.New[money.Cents](time.Minute)
	svc := service.NewBillingService(
		f, f, f,
		balances,
		5*time.Second,
		observability.NewMetrics(),
		zap.NewNop(),
	)

	// Prime the cache, then move the account balance underneath it.
	if _, err := svc.GetBalanceByPhone(context.Background(), testBusiness, "9876543210"); err != nil {
		t.Fatalf("GetBalanceByPhone: %v", err)
	}
	f.customers["9876543210"].Balance = 9999

	cust, err := svc.RefreshCustomer(context.Background(), testBusiness, "9876543210")
	if err != nil {
		t.Fatalf("RefreshCustomer: %v", err)
	}
	if cust.Balance != 9999 {
		t.Errorf("refreshed balance = %d, want 9999", cust.Balance)
	}
	if got, ok := balances.Get(testBusiness + ":9876543210"); !ok || got != 9999 {
		t.Errorf("cached balance = %d (hit %v), want 9999", got, ok)
	}

	view, err := svc.GetBalanceByPhone(context.Background(), testBusiness, "9876543210")
	if err != nil {
		t.Fatalf("GetBalanceByPhone: %v", err)
	}
	if view.Balance != 9999 {
		t.Errorf("balance after refresh = %d, want 9999", view.Balance)
	}
}

func TestRefreshCustomer_UnknownPhoneIsNotFound(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	_, err := svc.RefreshCustomer(context.Background(), testBusiness, "0000000000")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *domain.ErrNotFound", err)
	}
}

func TestLatestBalanceByPhone_NoBillsReadsZero(t *testing.T) {
	f := newFakeBackend()
	svc := newBillingService(f)

	view, err := svc.LatestBalanceByPhone(context.Background(), testBusiness, "0000000000")
	if err != nil {
		t.Fatalf("LatestBalanceByPhone: %v", err)
	}
	if view.Balance != 0 || view.Source != domain.BalanceSourceLatestBill {
		t.Errorf("view = %+v, want zero balance from latest_bill", view)
	}
}
