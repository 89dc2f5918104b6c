// Package reconcile cross-checks computed statements against vendor-supplied
// summaries. The ledger stays authoritative; the external summary is a
// second opinion and is never persisted as truth.
package reconcile

import (
	"fmt"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/money"
)

// Field names compared during validation.
const (
	FieldOpening = "opening_balance"
	FieldGross   = "gross_activity"
	FieldFees    = "fees"
	FieldPayouts = "payouts"
	FieldClosing = "closing_balance"
)

// ExternalSummary is a vendor-provided month summary in minor units.
type ExternalSummary struct {
	Opening int64
	Gross   int64
	Fees    int64
	Payouts int64
	Closing int64
}

// RawSummary carries the summary as decimal strings, the shape it arrives
// in from CSV or JSON.
type RawSummary struct {
	Opening string `json:"opening_balance"`
	Gross   string `json:"gross_activity"`
	Fees    string `json:"fees"`
	Payouts string `json:"payouts"`
	Closing string `json:"closing_balance"`
}

// Parse converts a raw summary into minor units.
func (r RawSummary) Parse() (ExternalSummary, error) {
	var (
		sum ExternalSummary
		err error
	)
	fields := []struct {
		name string
		raw  string
		dst  *int64
	}{
		{FieldOpening, r.Opening, &sum.Opening},
		{FieldGross, r.Gross, &sum.Gross},
		{FieldFees, r.Fees, &sum.Fees},
		{FieldPayouts, r.Payouts, &sum.Payouts},
		{FieldClosing, r.Closing, &sum.Closing},
	}
	for _, f := range fields {
		*f.dst, err = money.ParseMinorUnits(f.raw)
		if err != nil {
			return ExternalSummary{}, fmt.Errorf("reconcile: %s: %w", f.name, err)
		}
	}
	return sum, nil
}

// Delta itemizes one field mismatch. Expected is the vendor figure, Actual
// the computed statement figure; Delta = Actual - Expected, minor units.
type Delta struct {
	Field    string `json:"field"`
	Expected int64  `json:"expected"`
	Actual   int64  `json:"actual"`
	Delta    int64  `json:"delta"`
}

// Status of one validation run.
type Status string

const (
	StatusMatched    Status = "matched"
	StatusDiscrepant Status = "discrepant"
)

// ValidationResult reports a field-by-field comparison. Any non-zero delta,
// even one minor unit, makes the run discrepant; nothing is rounded away.
type ValidationResult struct {
	AccountID     int64   `json:"account_id"`
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Status        Status  `json:"status"`
	Discrepancies []Delta `json:"discrepancies,omitempty"`
}
