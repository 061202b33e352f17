package domain

import (
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

// Payment methods accepted on a bill.
const (
	PaymentCash     = "cash"
	PaymentUPI      = "upi"
	PaymentCheck    = "check"
	PaymentCashGpay = "cash_gpay"
)

// BillItem is a single line item on a bill. Weight is in kg; Rate and Amount
// are integer cents.
type BillItem struct {
	No     int         `json:"no"`
	Item   string      `json:"item"`
	Weight float64     `json:"weight"`
	Rate   money.Cents `json:"rate"`
	Amount money.Cents `json:"amount"`
}

// Bill is a persisted ledger entry. TotalAmount, BalanceAmount and
// AdvanceAmount are computed, never supplied by the caller.
type Bill struct {
	ID             string      `json:"id"`
	BusinessID     string      `json:"business_id"`
	BillNumber     string      `json:"bill_number,omitempty"`
	CustomerName   string      `json:"customer_name"`
	CustomerPhone  string      `json:"customer_phone"`
	Date           string      `json:"date"` // 2006-01-02
	Items          []BillItem  `json:"items"`
	TotalAmount    money.Cents `json:"total_amount"`
	PaidAmount     money.Cents `json:"paid_amount"`
	BalanceAmount  money.Cents `json:"balance_amount"`
	AdvanceAmount  money.Cents `json:"advance_amount"`
	DeliveryCharge money.Cents `json:"delivery_charge"`
	CleaningCharge money.Cents `json:"cleaning_charge"`
	PaymentMethod  string      `json:"payment_method"`
	UPIType        string      `json:"upi_type,omitempty"`
	BankName       string      `json:"bank_name,omitempty"`
	CheckNumber    string      `json:"check_number,omitempty"`
	CashAmount     money.Cents `json:"cash_amount,omitempty"`
	GpayAmount     money.Cents `json:"gpay_amount,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ItemsTotal sums the line item amounts.
func (b *Bill) ItemsTotal() money.Cents {
	var sum money.Cents
	for _, it := range b.Items {
		sum += it.Amount
	}
	return sum
}

// BillItemRequest is a line item as submitted by the caller, with decimal
// amounts. Converted to cents at the boundary.
type BillItemRequest struct {
	No     int     `json:"no"`
	Item   string  `json:"item"`
	Weight float64 `json:"weight"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// BillRequest carries the caller-supplied fields for creating or updating a
// bill. Monetary values are decimal at this boundary.
type BillRequest struct {
	BillNumber     string            `json:"bill_number,omitempty"`
	CustomerName   string            `json:"customer_name"`
	CustomerPhone  string            `json:"customer_phone"`
	Date           string            `json:"date"`
	Items          []BillItemRequest `json:"items"`
	PaidAmount     float64           `json:"paid_amount"`
	DeliveryCharge float64           `json:"delivery_charge"`
	CleaningCharge float64           `json:"cleaning_charge"`
	PaymentMethod  string            `json:"payment_method"`
	UPIType        string            `json:"upi_type,omitempty"`
	BankName       string            `json:"bank_name,omitempty"`
	CheckNumber    string            `json:"check_number,omitempty"`
	CashAmount     float64           `json:"cash_amount,omitempty"`
	GpayAmount     float64           `json:"gpay_amount,omitempty"`
}
