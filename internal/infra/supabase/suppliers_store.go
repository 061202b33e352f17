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
	"go.uber.org/zap"
)

// ============================================================
// SupplierStore implementation
// ============================================================

type supabaseSupplier struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r supabaseSupplier) toDomain() *domain.Supplier {
	return &domain.Supplier{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Name:       r.Name,
		CreatedAt:  r.CreatedAt,
	}
}

// GetOrCreateSupplier returns the supplier with this name, creating it if
// absent. Concurrent creates converge via the unique (business_id, name)
// constraint.
func (c *Client) GetOrCreateSupplier(ctx context.Context, businessID, name string) (*domain.Supplier, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetOrCreateSupplier")
	defer span.End()

	existing, err := c.findSupplierByName(ctx, businessID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	body, err := c.doPost(ctx, "suppliers", map[string]any{
		"id":          uuid.New().String(),
		"business_id": businessID,
		"name":        name,
	})
	if err != nil {
		if isDuplicate(err) {
			winner, ferr := c.findSupplierByName(ctx, businessID, name)
			if ferr != nil {
				return nil, ferr
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, c.wrapErr("supabase/suppliers", err)
	}

	var results []supabaseSupplier
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode supplier insert: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from suppliers insert")
	}

	c.logger.Info("supabase: supplier created",
		zap.String("business_id", businessID),
		zap.String("name", name),
	)
	return results[0].toDomain(), nil
}

func (c *Client) findSupplierByName(ctx context.Context, businessID, name string) (*domain.Supplier, error) {
	path := fmt.Sprintf("suppliers?business_id=eq.%s&name=eq.%s&limit=1",
		url.QueryEscape(businessID), url.QueryEscape(name))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/suppliers", err)
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []supabaseSupplier
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode supplier: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

func (c *Client) ListSuppliers(ctx context.Context, businessID string) ([]domain.Supplier, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSuppliers")
	defer span.End()

	path := fmt.Sprintf("suppliers?business_id=eq.%s&order=name.asc", url.QueryEscape(businessID))
	return c.fetchSuppliers(ctx, path)
}

func (c *Client) SuggestSuppliers(ctx context.Context, businessID, prefix string) ([]domain.Supplier, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SuggestSuppliers")
	defer span.End()

	path := fmt.Sprintf("suppliers?business_id=eq.%s&name=ilike.%s&order=name.asc&limit=10",
		url.QueryEscape(businessID), url.QueryEscape(prefix+"%"))
	return c.fetchSuppliers(ctx, path)
}

// DeleteSupplier removes the supplier's purchases first, then the supplier.
func (c *Client) DeleteSupplier(ctx context.Context, businessID, supplierID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSupplier")
	defer span.End()

	purchasesPath := fmt.Sprintf("purchases?business_id=eq.%s&supplier_id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(supplierID))
	if err := c.doDelete(ctx, purchasesPath); err != nil {
		return c.wrapErr("supabase/purchases", err)
	}

	path := fmt.Sprintf("suppliers?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(supplierID))
	if err := c.doDelete(ctx, path); err != nil {
		return c.wrapErr("supabase/suppliers", err)
	}

	c.logger.Info("supabase: supplier deleted with purchases",
		zap.String("business_id", businessID),
		zap.String("supplier_id", supplierID),
	)
	return nil
}

func (c *Client) fetchSuppliers(ctx context.Context, path string) ([]domain.Supplier, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/suppliers", err)
	}

	var rows []supabaseSupplier
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode suppliers: %w", err)
		}
	}

	suppliers := make([]domain.Supplier, 0, len(rows))
	for _, r := range rows {
		suppliers = append(suppliers, *r.toDomain())
	}
	return suppliers, nil
}
