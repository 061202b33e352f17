package port

import (
	"context"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
)

// SupplierStore manages supplier records.
type SupplierStore interface {
	// GetOrCreateSupplier returns the existing supplier with this name or
	// creates it; concurrent creates of the same name must converge on one
	// row.
	GetOrCreateSupplier(ctx context.Context, businessID, name string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context, businessID string) ([]domain.Supplier, error)
	SuggestSuppliers(ctx context.Context, businessID, prefix string) ([]domain.Supplier, error)

	// DeleteSupplier removes the supplier and all their purchases.
	DeleteSupplier(ctx context.Context, businessID, supplierID string) error
}

// ProductStore manages the product catalog.
type ProductStore interface {
	CreateProduct(ctx context.Context, businessID, name string) (*domain.Product, error)
	ListProducts(ctx context.Context, businessID string) ([]domain.Product, error)
	DeleteProduct(ctx context.Context, businessID, productID string) error
}

// PurchaseStore manages purchase records.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, businessID string, page, pageSize int) ([]domain.Purchase, error)
	DeletePurchase(ctx context.Context, businessID, purchaseID string) error
}

// LoadStore manages load entries (incoming stock tracking).
type LoadStore interface {
	CreateLoadEntry(ctx context.Context, entry *domain.LoadEntry) (*domain.LoadEntry, error)
	ListLoadEntries(ctx context.Context, businessID string, page, pageSize int) ([]domain.LoadEntry, error)
	DeleteLoadEntry(ctx context.Context, businessID, entryID string) error
}

// SalaryStore manages salary entries.
type SalaryStore interface {
	CreateSalaryEntry(ctx context.Context, entry *domain.SalaryEntry) (*domain.SalaryEntry, error)
	ListSalaryEntries(ctx context.Context, businessID string) ([]domain.SalaryEntry, error)
	DeleteSalaryEntry(ctx context.Context, businessID, entryID string) error
}
