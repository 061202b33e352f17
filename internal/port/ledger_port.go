package port

import (
	"context"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

// LedgerStore persists bill records. Every operation is scoped to a business
// id; implementations must never return rows belonging to another business.
type LedgerStore interface {
	CreateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error)
	UpdateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error)
	DeleteBill(ctx context.Context, businessID, billID string) error
	GetBill(ctx context.Context, businessID, billID string) (*domain.Bill, error)
	ListBills(ctx context.Context, businessID string, page, pageSize int) ([]domain.Bill, error)
	ListBillsByPhone(ctx context.Context, businessID, phone string) ([]domain.Bill, error)

	// LatestBillByPhone returns the customer's most recent bill by date.
	// Used for the informational latest-balance lookup, not for the
	// authoritative account balance.
	LatestBillByPhone(ctx context.Context, businessID, phone string) (*domain.Bill, error)
}

// BalanceStore reads and writes the authoritative customer balance.
type BalanceStore interface {
	GetBalance(ctx context.Context, businessID, customerID string) (money.Cents, error)

	// SetBalance overwrites the balance unconditionally. Only for flows
	// where no concurrent writer is possible (e.g. reconciliation tooling).
	SetBalance(ctx context.Context, businessID, customerID string, balance money.Cents) error

	// SetBalanceIf writes next only if the stored balance still equals
	// expected, returning *domain.ErrConflict otherwise. This is the
	// primitive the synchronization protocol uses to detect lost updates.
	SetBalanceIf(ctx context.Context, businessID, customerID string, expected, next money.Cents) error
}

// CustomerStore manages customer records.
type CustomerStore interface {
	GetOrCreateCustomer(ctx context.Context, businessID, name, phone string) (*domain.Customer, error)
	GetCustomerByPhone(ctx context.Context, businessID, phone string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, businessID string) ([]domain.Customer, error)

	// DeleteCustomer removes the customer and all their bills.
	DeleteCustomer(ctx context.Context, businessID, customerID string) error
}
