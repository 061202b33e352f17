package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
)

// ============================================================
// LoadStore implementation
// ============================================================

type supabaseLoadEntry struct {
	ID               string    `json:"id"`
	BusinessID       string    `json:"business_id"`
	EntryDate        string    `json:"entry_date"`
	NoOfBoxes        int       `json:"no_of_boxes"`
	QuantityWithBox  float64   `json:"quantity_with_box"`
	NoOfBoxesAfter   int       `json:"no_of_boxes_after"`
	QuantityAfterBox float64   `json:"quantity_after_box"`
	ProductID        string    `json:"product_id"`
	SupplierID       string    `json:"supplier_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func (r supabaseLoadEntry) toDomain() *domain.LoadEntry {
	return &domain.LoadEntry{
		ID:               r.ID,
		BusinessID:       r.BusinessID,
		EntryDate:        r.EntryDate,
		NoOfBoxes:        r.NoOfBoxes,
		QuantityWithBox:  r.QuantityWithBox,
		NoOfBoxesAfter:   r.NoOfBoxesAfter,
		QuantityAfterBox: r.QuantityAfterBox,
		ProductID:        r.ProductID,
		SupplierID:       r.SupplierID,
		CreatedAt:        r.CreatedAt,
	}
}

func (c *Client) CreateLoadEntry(ctx context.Context, entry *domain.LoadEntry) (*domain.LoadEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateLoadEntry")
	defer span.End()

	body, err := c.doPost(ctx, "load_entries", map[string]any{
		"id":                 entry.ID,
		"business_id":        entry.BusinessID,
		"entry_date":         entry.EntryDate,
		"no_of_boxes":        entry.NoOfBoxes,
		"quantity_with_box":  entry.QuantityWithBox,
		"no_of_boxes_after":  entry.NoOfBoxesAfter,
		"quantity_after_box": entry.QuantityAfterBox,
		"product_id":         entry.ProductID,
		"supplier_id":        entry.SupplierID,
	})
	if err != nil {
		return nil, c.wrapErr("supabase/load_entries", err)
	}

	var results []supabaseLoadEntry
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode load entry insert: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from load_entries insert")
	}
	return results[0].toDomain(), nil
}

func (c *Client) ListLoadEntries(ctx context.Context, businessID string, page, pageSize int) ([]domain.LoadEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLoadEntries")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("load_entries?business_id=eq.%s&order=entry_date.desc&limit=%d&offset=%d",
		url.QueryEscape(businessID), pageSize, offset)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/load_entries", err)
	}

	var rows []supabaseLoadEntry
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode load entries: %w", err)
		}
	}

	entries := make([]domain.LoadEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, *r.toDomain())
	}
	return entries, nil
}

func (c *Client) DeleteLoadEntry(ctx context.Context, businessID, entryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteLoadEntry")
	defer span.End()

	path := fmt.Sprintf("load_entries?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(entryID))
	if err := c.doDelete(ctx, path); err != nil {
		return c.wrapErr("supabase/load_entries", err)
	}
	return nil
}
