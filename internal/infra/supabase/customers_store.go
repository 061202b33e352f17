package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// CustomerStore + BalanceStore implementation
// ============================================================

// supabaseCustomer maps the customers table columns. Balance is stored as a
// decimal in the database and converted to cents at this boundary.
type supabaseCustomer struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Balance    float64   `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r supabaseCustomer) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Name:       r.Name,
		Phone:      r.Phone,
		Balance:    money.ToCents(r.Balance),
		CreatedAt:  r.CreatedAt,
	}
}

func (c *Client) GetCustomerByPhone(ctx context.Context, businessID, phone string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCustomerByPhone")
	defer span.End()
	span.SetAttributes(attribute.String("customer.phone", phone))

	var cust *domain.Customer

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("customers?business_id=eq.%s&phone=eq.%s&limit=1",
				url.QueryEscape(businessID), url.QueryEscape(phone))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "customer", ID: phone})
			}

			var rows []supabaseCustomer
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode customer: %w", err)
			}
			if len(rows) == 0 {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "customer", ID: phone})
			}

			cust = rows[0].toDomain()
			return nil
		})
	})
	if err != nil {
		return nil, c.wrapErr("supabase/customers", err)
	}

	return cust, nil
}

func (c *Client) GetOrCreateCustomer(ctx context.Context, businessID, name, phone string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetOrCreateCustomer")
	defer span.End()

	existing, err := c.GetCustomerByPhone(ctx, businessID, phone)
	if err == nil {
		return existing, nil
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}

	row := supabaseCustomer{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		Name:       name,
		Phone:      phone,
		Balance:    0,
	}
	body, err := c.doPost(ctx, "customers", map[string]any{
		"id":          row.ID,
		"business_id": row.BusinessID,
		"name":        row.Name,
		"phone":       row.Phone,
		"balance":     0,
	})
	if err != nil {
		// Concurrent create of the same phone: converge on the winner's row.
		if isDuplicate(err) {
			return c.GetCustomerByPhone(ctx, businessID, phone)
		}
		return nil, c.wrapErr("supabase/customers", err)
	}

	var results []supabaseCustomer
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode customer insert: %w", err)
	}
	if len(results) == 0 {
		return row.toDomain(), nil
	}

	c.logger.Info("supabase: customer created",
		zap.String("business_id", businessID),
		zap.String("phone", phone),
	)
	return results[0].toDomain(), nil
}

func (c *Client) ListCustomers(ctx context.Context, businessID string) ([]domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCustomers")
	defer span.End()

	path := fmt.Sprintf("customers?business_id=eq.%s&order=name.asc", url.QueryEscape(businessID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/customers", err)
	}

	var rows []supabaseCustomer
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode customers: %w", err)
		}
	}

	customers := make([]domain.Customer, 0, len(rows))
	for _, r := range rows {
		customers = append(customers, *r.toDomain())
	}
	return customers, nil
}

// DeleteCustomer removes the customer's bills first, then the customer row.
func (c *Client) DeleteCustomer(ctx context.Context, businessID, customerID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCustomer")
	defer span.End()

	path := fmt.Sprintf("customers?business_id=eq.%s&id=eq.%s&limit=1",
		url.QueryEscape(businessID), url.QueryEscape(customerID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return c.wrapErr("supabase/customers", err)
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}

	var rows []supabaseCustomer
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode customer: %w", err)
	}
	if len(rows) == 0 {
		return &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}

	billsPath := fmt.Sprintf("bills?business_id=eq.%s&customer_phone=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(rows[0].Phone))
	if err := c.doDelete(ctx, billsPath); err != nil {
		return c.wrapErr("supabase/bills", err)
	}

	custPath := fmt.Sprintf("customers?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(customerID))
	if err := c.doDelete(ctx, custPath); err != nil {
		return c.wrapErr("supabase/customers", err)
	}

	c.logger.Info("supabase: customer deleted with bills",
		zap.String("business_id", businessID),
		zap.String("customer_id", customerID),
	)
	return nil
}

// --- BalanceStore ---

func (c *Client) GetBalance(ctx context.Context, businessID, customerID string) (money.Cents, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBalance")
	defer span.End()

	var balance money.Cents

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("customers?business_id=eq.%s&id=eq.%s&select=balance&limit=1",
				url.QueryEscape(businessID), url.QueryEscape(customerID))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "customer", ID: customerID})
			}

			var rows []struct {
				Balance float64 `json:"balance"`
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode balance: %w", err)
			}
			if len(rows) == 0 {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "customer", ID: customerID})
			}

			balance = money.ToCents(rows[0].Balance)
			return nil
		})
	})
	if err != nil {
		return 0, c.wrapErr("supabase/balance", err)
	}

	return balance, nil
}

func (c *Client) SetBalance(ctx context.Context, businessID, customerID string, balance money.Cents) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetBalance")
	defer span.End()

	path := fmt.Sprintf("customers?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(customerID))
	err := c.doPatch(ctx, path, map[string]any{
		"balance": money.FromCents(balance),
	})
	if err != nil {
		return c.wrapErr("supabase/balance", err)
	}
	return nil
}

// SetBalanceIf writes next only if the stored balance still equals expected.
// The balance filter on the PATCH makes the check-and-write a single server
// round trip; an empty result set means the precondition failed.
func (c *Client) SetBalanceIf(ctx context.Context, businessID, customerID string, expected, next money.Cents) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetBalanceIf")
	defer span.End()

	path := fmt.Sprintf("customers?business_id=eq.%s&id=eq.%s&balance=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(customerID), money.Format(expected))
	body, err := c.doPatchReturning(ctx, path, map[string]any{
		"balance": money.FromCents(next),
	})
	if err != nil {
		return c.wrapErr("supabase/balance", err)
	}

	var rows []supabaseCustomer
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode conditional balance update: %w", err)
		}
	}
	if len(rows) == 0 {
		c.logger.Debug("supabase: conditional balance write missed",
			zap.String("customer_id", customerID),
			zap.String("expected", money.Format(expected)),
		)
		return &domain.ErrConflict{
			Resource: "customer_balance",
			Message:  fmt.Sprintf("balance of customer %s no longer equals %s", customerID, money.Format(expected)),
		}
	}
	return nil
}
