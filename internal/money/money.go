// Package money implements integer-cent currency arithmetic.
//
// All amounts are held as int64 minor units (paise/cents). Conversion to and
// from decimal values happens only at I/O boundaries; once an amount has been
// converted, arithmetic never touches floating point again.
package money

import (
	"fmt"
	"math"
	"strconv"
)

// Cents is a currency amount in minor units.
type Cents int64

// ToCents converts a decimal currency value to integer cents, rounding
// half-away-from-zero. Non-finite input (NaN, ±Inf) converts to 0 instead of
// failing; callers that want strict input checking should validate before
// converting (see ParseCents).
func ToCents(v float64) Cents {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Cents(math.Round(v * 100))
}

// ParseCents parses a decimal currency string into cents. Unlike ToCents it
// reports unparseable or non-finite input instead of zeroing it.
func ParseCents(s string) (Cents, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite amount %q", s)
	}
	return ToCents(f), nil
}

// FromCents converts integer cents back to a decimal value. The numerator is
// already an integer, so no rounding is re-applied.
func FromCents(c Cents) float64 {
	return float64(c) / 100
}

// Add sums any number of cent amounts.
func Add(values ...Cents) Cents {
	var sum Cents
	for _, v := range values {
		sum += v
	}
	return sum
}

// ClampMin returns v, but never less than min.
func ClampMin(min, v Cents) Cents {
	if v < min {
		return min
	}
	return v
}

// Format renders an amount with two decimal places for display.
func Format(c Cents) string {
	return strconv.FormatFloat(FromCents(c), 'f', 2, 64)
}

// BillInput holds the monetary inputs of a single bill computation.
type BillInput struct {
	PreviousBalance Cents
	ItemsTotal      Cents
	DeliveryCharge  Cents
	CleaningCharge  Cents
	PaidAmount      Cents
}

// Totals is the result of a bill computation.
type Totals struct {
	// TotalAmount is the amount due before payment: previous balance plus
	// this transaction's charges.
	TotalAmount Cents
	// NewBalance is what the customer still owes; never negative.
	NewBalance Cents
	// AdvanceAmount is what the customer overpaid beyond the total due;
	// never negative. At most one of NewBalance/AdvanceAmount is nonzero.
	AdvanceAmount Cents
	// TransactionAmount is items plus delivery and cleaning charges,
	// excluding the previous balance.
	TransactionAmount Cents
}

// ComputeTotals derives transaction and balance figures from a bill's
// monetary inputs. Pure and deterministic: no I/O, no hidden state.
func ComputeTotals(in BillInput) Totals {
	charges := Add(in.DeliveryCharge, in.CleaningCharge)
	transaction := Add(in.ItemsTotal, charges)
	total := Add(in.PreviousBalance, transaction)
	return Totals{
		TotalAmount:       total,
		NewBalance:        ClampMin(0, total-in.PaidAmount),
		AdvanceAmount:     ClampMin(0, in.PaidAmount-total),
		TransactionAmount: transaction,
	}
}
