// Package statement computes monthly balance-continuity statements from the
// transaction ledger and keeps the roll-forward chain intact.
package statement

import (
	"errors"
	"fmt"
	"time"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// ReconStatus tracks the reconciliation state machine. Generation resets a
// statement to UNVERIFIED; validation moves it to MATCHED or DISCREPANT.
type ReconStatus string

const (
	ReconUnverified ReconStatus = "UNVERIFIED"
	ReconMatched    ReconStatus = "MATCHED"
	ReconDiscrepant ReconStatus = "DISCREPANT"
)

// Statement is the computed summary for one (account, year, month). All
// monetary fields are int64 minor units. Statements are never hand-edited,
// only regenerated from the ledger plus the previous closing balance.
type Statement struct {
	ID                int64
	AccountID         int64
	Year              int
	Month             int
	Opening           int64
	Gross             int64
	Fees              int64
	Net               int64
	Payouts           int64
	Closing           int64
	Currency          string
	TxnCount          int
	ReconStatus       ReconStatus
	Discrepancy       int64
	Stale             bool
	OpeningOverridden bool
	GeneratedAt       time.Time
}

// Balances reports whether the balance equation holds exactly.
func (s Statement) Balances() bool {
	return s.Closing == s.Opening+s.Gross-s.Fees-s.Payouts
}

// GenerateInput carries one statement generation call.
type GenerateInput struct {
	AccountID       int64
	Year            int
	Month           int
	OpeningOverride *int64
	ActorID         int64
}

// Validate ensures the target month is coherent.
func (in GenerateInput) Validate() error {
	if in.AccountID == 0 {
		return errors.New("statement: account required")
	}
	if in.Year < 2000 || in.Year > 2200 {
		return fmt.Errorf("statement: year %d out of range", in.Year)
	}
	if in.Month < 1 || in.Month > 12 {
		return fmt.Errorf("statement: month %d out of range", in.Month)
	}
	return nil
}

// MonthWindow returns the half-open UTC window [start, nextStart) for a
// calendar month. A transaction stamped exactly at nextStart belongs to the
// next month, never this one.
func MonthWindow(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// NextMonth advances a (year, month) pair.
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// PrevMonth rewinds a (year, month) pair.
func PrevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// ErrMissingOpeningBalance is fatal for generation: no prior statement and
// no explicit override exists, so the roll-forward chain cannot start.
var ErrMissingOpeningBalance = errors.New("statement: no prior statement and no opening balance override")

// ErrCascadeConflict indicates the per-account lock stayed busy. The caller
// should retry with backoff rather than queue behind a cascade.
var ErrCascadeConflict = fmt.Errorf("statement: generation busy: %w", shared.ErrLockNotAcquired)
