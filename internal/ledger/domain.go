// Package ledger stores billing accounts and their imported transactions.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates ledger entry categories.
type TransactionType string

const (
	TypeCharge     TransactionType = "charge"
	TypeRefund     TransactionType = "refund"
	TypePayout     TransactionType = "payout"
	TypeAdjustment TransactionType = "adjustment"
)

// Account is a billing entity. Accounts are created once at setup and never
// deleted; historical statements reference them.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is a single ledger entry. Amounts are signed int64 minor
// units; refunds and payouts carry negative gross relative to the balance.
// Rows are immutable after import except for replace-batch re-imports.
type Transaction struct {
	ID          int64
	AccountID   int64
	ExternalID  string
	OccurredAt  time.Time
	Type        TransactionType
	Gross       int64
	Fee         int64
	Currency    string
	Status      string
	Description string
	BatchID     uuid.UUID
	Source      string
	CreatedAt   time.Time
}

// MonthTotals aggregates one account's activity inside a month window.
type MonthTotals struct {
	ActivityGross int64
	ActivityFees  int64
	PayoutNet     int64 // positive outflow total, negated from storage
	PayoutFees    int64
	Count         int
}

// CreateAccountInput carries validated account creation fields.
type CreateAccountInput struct {
	Code     string
	Name     string
	Currency string
}

// Validate ensures the input is coherent.
func (in CreateAccountInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return errors.New("ledger: account code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("ledger: account name required")
	}
	if len(strings.TrimSpace(in.Currency)) != 3 {
		return errors.New("ledger: currency must be an ISO 4217 code")
	}
	return nil
}
