package domain

import (
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

// SalaryEntry records a salary payout on a given date.
type SalaryEntry struct {
	ID         string      `json:"id"`
	BusinessID string      `json:"business_id"`
	SalaryDate string      `json:"salary_date"` // 2006-01-02
	Amount     money.Cents `json:"amount"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SalaryRequest is the caller-supplied shape with a decimal amount.
type SalaryRequest struct {
	SalaryDate string  `json:"salary_date"`
	Amount     float64 `json:"amount"`
}
