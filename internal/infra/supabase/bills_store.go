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

	"go.uber.org/zap"
)

// ============================================================
// LedgerStore implementation — bill CRUD via PostgREST
// ============================================================

// supabaseBillItem mirrors one element of the bills.items jsonb column.
// Amounts are decimals in the database.
type supabaseBillItem struct {
	No     int     `json:"no"`
	Item   string  `json:"item"`
	Weight float64 `json:"weight"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// supabaseBill maps the bills table columns. Payment columns marshal
// unconditionally so a PATCH overwrites values the caller zeroed out.
type supabaseBill struct {
	ID             string             `json:"id,omitempty"`
	BusinessID     string             `json:"business_id"`
	BillNumber     string             `json:"bill_number"`
	CustomerName   string             `json:"customer_name"`
	CustomerPhone  string             `json:"customer_phone"`
	Date           string             `json:"date"`
	Items          []supabaseBillItem `json:"items"`
	TotalAmount    float64            `json:"total_amount"`
	PaidAmount     float64            `json:"paid_amount"`
	BalanceAmount  float64            `json:"balance_amount"`
	AdvanceAmount  float64            `json:"advance_amount"`
	DeliveryCharge float64            `json:"delivery_charge"`
	CleaningCharge float64            `json:"cleaning_charge"`
	PaymentMethod  string             `json:"payment_method"`
	UPIType        string             `json:"upi_type"`
	BankName       string             `json:"bank_name"`
	CheckNumber    string             `json:"check_number"`
	CashAmount     float64            `json:"cash_amount"`
	GpayAmount     float64            `json:"gpay_amount"`
	CreatedAt      *time.Time         `json:"created_at,omitempty"`
}

func billToRow(b *domain.Bill) supabaseBill {
	items := make([]supabaseBillItem, 0, len(b.Items))
	for _, it := range b.Items {
		items = append(items, supabaseBillItem{
			No:     it.No,
			Item:   it.Item,
			Weight: it.Weight,
			Rate:   money.FromCents(it.Rate),
			Amount: money.FromCents(it.Amount),
		})
	}
	return supabaseBill{
		ID:             b.ID,
		BusinessID:     b.BusinessID,
		BillNumber:     b.BillNumber,
		CustomerName:   b.CustomerName,
		CustomerPhone:  b.CustomerPhone,
		Date:           b.Date,
		Items:          items,
		TotalAmount:    money.FromCents(b.TotalAmount),
		PaidAmount:     money.FromCents(b.PaidAmount),
		BalanceAmount:  money.FromCents(b.BalanceAmount),
		AdvanceAmount:  money.FromCents(b.AdvanceAmount),
		DeliveryCharge: money.FromCents(b.DeliveryCharge),
		CleaningCharge: money.FromCents(b.CleaningCharge),
		PaymentMethod:  b.PaymentMethod,
		UPIType:        b.UPIType,
		BankName:       b.BankName,
		CheckNumber:    b.CheckNumber,
		CashAmount:     money.FromCents(b.CashAmount),
		GpayAmount:     money.FromCents(b.GpayAmount),
	}
}

func (r supabaseBill) toDomain() *domain.Bill {
	items := make([]domain.BillItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.BillItem{
			No:     it.No,
			Item:   it.Item,
			Weight: it.Weight,
			Rate:   money.ToCents(it.Rate),
			Amount: money.ToCents(it.Amount),
		})
	}
	var createdAt time.Time
	if r.CreatedAt != nil {
		createdAt = *r.CreatedAt
	}
	return &domain.Bill{
		ID:             r.ID,
		BusinessID:     r.BusinessID,
		BillNumber:     r.BillNumber,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		Date:           r.Date,
		Items:          items,
		TotalAmount:    money.ToCents(r.TotalAmount),
		PaidAmount:     money.ToCents(r.PaidAmount),
		BalanceAmount:  money.ToCents(r.BalanceAmount),
		AdvanceAmount:  money.ToCents(r.AdvanceAmount),
		DeliveryCharge: money.ToCents(r.DeliveryCharge),
		CleaningCharge: money.ToCents(r.CleaningCharge),
		PaymentMethod:  r.PaymentMethod,
		UPIType:        r.UPIType,
		BankName:       r.BankName,
		CheckNumber:    r.CheckNumber,
		CashAmount:     money.ToCents(r.CashAmount),
		GpayAmount:     money.ToCents(r.GpayAmount),
		CreatedAt:      createdAt,
	}
}

func (c *Client) CreateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBill")
	defer span.End()

	body, err := c.doPost(ctx, "bills", billToRow(bill))
	if err != nil {
		return nil, c.wrapErr("supabase/bills", err)
	}

	var results []supabaseBill
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode bill insert: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from bills insert")
	}

	c.logger.Info("supabase: bill created",
		zap.String("bill_id", results[0].ID),
		zap.String("customer_phone", bill.CustomerPhone),
	)
	return results[0].toDomain(), nil
}

func (c *Client) UpdateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBill")
	defer span.End()

	path := fmt.Sprintf("bills?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(bill.BusinessID), url.QueryEscape(bill.ID))
	row := billToRow(bill)
	row.ID = "" // never patch the primary key

	body, err := c.doPatchReturning(ctx, path, row)
	if err != nil {
		return nil, c.wrapErr("supabase/bills", err)
	}

	var results []supabaseBill
	if body != nil {
		if err := json.Unmarshal(body, &results); err != nil {
			return nil, fmt.Errorf("decode bill update: %w", err)
		}
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: bill.ID}
	}
	return results[0].toDomain(), nil
}

func (c *Client) DeleteBill(ctx context.Context, businessID, billID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBill")
	defer span.End()

	path := fmt.Sprintf("bills?business_id=eq.%s&id=eq.%s",
		url.QueryEscape(businessID), url.QueryEscape(billID))
	if err := c.doDelete(ctx, path); err != nil {
		return c.wrapErr("supabase/bills", err)
	}
	return nil
}

func (c *Client) GetBill(ctx context.Context, businessID, billID string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBill")
	defer span.End()

	path := fmt.Sprintf("bills?business_id=eq.%s&id=eq.%s&limit=1",
		url.QueryEscape(businessID), url.QueryEscape(billID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/bills", err)
	}

	var rows []supabaseBill
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode bill: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	return rows[0].toDomain(), nil
}

func (c *Client) ListBills(ctx context.Context, businessID string, page, pageSize int) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBills")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("bills?business_id=eq.%s&order=date.desc,created_at.desc&limit=%d&offset=%d",
		url.QueryEscape(businessID), pageSize, offset)
	return c.fetchBills(ctx, path)
}

func (c *Client) ListBillsByPhone(ctx context.Context, businessID, phone string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBillsByPhone")
	defer span.End()

	path := fmt.Sprintf("bills?business_id=eq.%s&customer_phone=eq.%s&order=date.desc,created_at.desc",
		url.QueryEscape(businessID), url.QueryEscape(phone))
	return c.fetchBills(ctx, path)
}

func (c *Client) LatestBillByPhone(ctx context.Context, businessID, phone string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LatestBillByPhone")
	defer span.End()

	path := fmt.Sprintf("bills?business_id=eq.%s&customer_phone=eq.%s&order=date.desc,created_at.desc&limit=1",
		url.QueryEscape(businessID), url.QueryEscape(phone))
	bills, err := c.fetchBills(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: phone}
	}
	return &bills[0], nil
}

func (c *Client) fetchBills(ctx context.Context, path string) ([]domain.Bill, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, c.wrapErr("supabase/bills", err)
	}

	var rows []supabaseBill
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode bills: %w", err)
		}
	}

	bills := make([]domain.Bill, 0, len(rows))
	for _, r := range rows {
		bills = append(bills, *r.toDomain())
	}
	return bills, nil
}
