package domain

import (
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

// Customer is a business-scoped account identified by name and phone. Balance
// is the single shared mutable resource of the system: it must only move
// through the balance synchronization operations, never be written directly.
type Customer struct {
	ID         string      `json:"id"`
	BusinessID string      `json:"business_id"`
	Name       string      `json:"name"`
	Phone      string      `json:"phone"`
	Balance    money.Cents `json:"balance"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Balance lookup sources.
const (
	BalanceSourceAccount    = "account"
	BalanceSourceLatestBill = "latest_bill"
)

// BalanceView is the response shape for balance lookups.
type BalanceView struct {
	CustomerPhone string      `json:"customer_phone"`
	Balance       money.Cents `json:"balance"`
	Source        string      `json:"source"` // "account" or "latest_bill"
}
