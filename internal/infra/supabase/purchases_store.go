package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

// ============================================================
// PurchaseStore implementation
// ============================================================

type supabasePurchase struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"business_id"`
	PurchaseDate string    `json:"purchase_date"`
	ProductID    string    `json:"product_id"`
	SupplierID   string    `json:"supplier_id"`
	QuantityKg   float64   `json:"quantity_kg"`
	PricePerKg   float64   `json:"price_per_kg"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r supabasePurchase) toDomain() *domain.Purchase {
	return &domain.Purchase{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		PurchaseDate: r.PurchaseDate,
		ProductID:    r.ProductID,
		SupplierID:   r.SupplierID,
		QuantityKg:   r.QuantityKg,
		PricePerKg:   money.ToCents(r.PricePerKg),
		CreatedAt:    r.CreatedAt,
	}
}

func (c *Client) CreatePurchase(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePurchase")
	defer span.End()

	body, err := c.doPost(ctx, "purchases", map[string]any{
		"id":            purchase.ID,
		"business_id":   purchase.BusinessID,
		"purchase_date": purchase.PurchaseDate,
		"product_id":    purchase.ProductID,
		"supplier_id":   purchase.SupplierID,
		"quantity_kg":   purchase.QuantityKg,
		"price_per_kg":  money.FromCents(purchase.PricePerKg),
	})
	if err != nil {
		return nil, c.wrapErr("supabase/purchases", err)
	}

	var results []supabasePurchase
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode purchase insert: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from purchases insert")
	}
	return results[0].toDomain(), nil
}

func (c *Client) ListPurchases(ctx context.Context, businessID string, page, pageSize int) ([]domain.Purchase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPurchases")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("purchases?business_id=eq.%s&order=purchase_date.desc&limit=%d&offset=%d",
		url.QueryEscape(businessID), pageSize, offset)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/purchases", err)
	}

	var rows []supabasePurchase
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode purchases: %w", err)
		}
	}

	purchases := make([]domain.Purchase, 0, len(rows))
	for _, r := range rows {
		purchases = append(purchases, *r.toDomain())
	}
	return purchases, nil
}

func (c *Client) DeletePurchase(ctx context.Context, businessID, purchaseID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePurchase")
	defer span.End()

	path := fmt.Sprintf("purchases?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(purchaseID))
	if err := c.doDelete(ctx, path); err != nil {
		return c.wrapErr("supabase/purchases", err)
	}
	return nil
}
