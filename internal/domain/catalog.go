package domain

import (
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

// Supplier is a business-scoped supplier, unique by name within a business.
type Supplier struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Product is a business-scoped catalog item.
type Product struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Purchase records stock bought from a supplier.
type Purchase struct {
	ID           string      `json:"id"`
	BusinessID   string      `json:"business_id"`
	PurchaseDate string      `json:"purchase_date"` // 2006-01-02
	ProductID    string      `json:"product_id"`
	SupplierID   string      `json:"supplier_id"`
	QuantityKg   float64     `json:"quantity_kg"`
	PricePerKg   money.Cents `json:"price_per_kg"`
	CreatedAt    time.Time   `json:"created_at"`
}

// PurchaseRequest is the caller-supplied shape; price is decimal at the
// boundary.
type PurchaseRequest struct {
	PurchaseDate string  `json:"purchase_date"`
	ProductID    string  `json:"product_id"`
	SupplierID   string  `json:"supplier_id"`
	QuantityKg   float64 `json:"quantity_kg"`
	PricePerKg   float64 `json:"price_per_kg"`
}

// LoadEntry records a day's incoming stock load for a product: box count and
// weight as received, and again after the boxes are removed.
type LoadEntry struct {
	ID               string    `json:"id"`
	BusinessID       string    `json:"business_id"`
	EntryDate        string    `json:"entry_date"` // 2006-01-02
	NoOfBoxes        int       `json:"no_of_boxes"`
	QuantityWithBox  float64   `json:"quantity_with_box"`
	NoOfBoxesAfter   int       `json:"no_of_boxes_after"`
	QuantityAfterBox float64   `json:"quantity_after_box"`
	ProductID        string    `json:"product_id"`
	SupplierID       string    `json:"supplier_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// LoadEntryRequest is the caller-supplied shape for a load entry. The
// after-unboxing figures may be zero when not yet weighed.
type LoadEntryRequest struct {
	EntryDate        string  `json:"entry_date"`
	NoOfBoxes        int     `json:"no_of_boxes"`
	QuantityWithBox  float64 `json:"quantity_with_box"`
	NoOfBoxesAfter   int     `json:"no_of_boxes_after"`
	QuantityAfterBox float64 `json:"quantity_after_box"`
	ProductID        string  `json:"product_id"`
	SupplierID       string  `json:"supplier_id"`
}
