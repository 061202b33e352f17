package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// ProductStore implementation
// ============================================================

type supabaseProduct struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r supabaseProduct) toDomain() *domain.Product {
	return &domain.Product{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Name:       r.Name,
		CreatedAt:  r.CreatedAt,
	}
}

func (c *Client) CreateProduct(ctx context.Context, businessID, name string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduct")
	defer span.End()

	body, err := c.doPost(ctx, "products", map[string]any{
		"id":          uuid.New().String(),
		"business_id": businessID,
		"name":        name,
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, &domain.ErrDuplicate{Key: name}
		}
		return nil, c.wrapErr("supabase/products", err)
	}

	var results []supabaseProduct
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode product insert: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from products insert")
	}
	return results[0].toDomain(), nil
}

func (c *Client) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()

	path := fmt.Sprintf("products?business_id=eq.%s&order=name.asc", url.QueryEscape(businessID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/products", err)
	}

	var rows []supabaseProduct
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
	}

	products := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, *r.toDomain())
	}
	return products, nil
}

func (c *Client) DeleteProduct(ctx context.Context, businessID, productID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProduct")
	defer span.End()

	path := fmt.Sprintf("products?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(productID))
	if err := c.doDelete(ctx, path); err != nil {
		return c.wrapErr("supabase/products", err)
	}
	return nil
}
