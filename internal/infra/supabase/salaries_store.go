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
// SalaryStore implementation
// ============================================================

type supabaseSalary struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	SalaryDate string    `json:"salary_date"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r supabaseSalary) toDomain() *domain.SalaryEntry {
	return &domain.SalaryEntry{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		SalaryDate: r.SalaryDate,
		Amount:     money.ToCents(r.Amount),
		CreatedAt:  r.CreatedAt,
	}
}

func (c *Client) CreateSalaryEntry(ctx context.Context, entry *domain.SalaryEntry) (*domain.SalaryEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSalaryEntry")
	defer span.End()

	body, err := c.doPost(ctx, "salaries", map[string]any{
		"id":          entry.ID,
		"business_id": entry.BusinessID,
		"salary_date": entry.SalaryDate,
		"amount":      money.FromCents(entry.Amount),
	})
	if err != nil {
		return nil, c.wrapErr("supabase/salaries", err)
	}

	var results []supabaseSalary
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode salary insert: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from salaries insert")
	}
	return results[0].toDomain(), nil
}

func (c *Client) ListSalaryEntries(ctx context.Context, businessID string) ([]domain.SalaryEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSalaryEntries")
	defer span.End()

	path := fmt.Sprintf("salaries?business_id=eq.%s&order=salary_date.desc", url.QueryEscape(businessID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/salaries", err)
	}

	var rows []supabaseSalary
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode salaries: %w", err)
		}
	}

	entries := make([]domain.SalaryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, *r.toDomain())
	}
	return entries, nil
}

func (c *Client) DeleteSalaryEntry(ctx context.Context, businessID, entryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSalaryEntry")
	defer span.End()

	path := fmt.Sprintf("salaries?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(entryID))
	if err := c.doDelete(ctx, path); err != nil {
		return c.wrapErr("supabase/salaries", err)
	}
	return nil
}
