// Package importer ingests vendor CSV exports into the transaction ledger.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// BatchKind distinguishes the two vendor export shapes.
type BatchKind string

const (
	KindActivity BatchKind = "activity"
	KindPayout   BatchKind = "payout"
)

// RawRow is one unparsed record from a vendor export. All fields arrive as
// strings; parsing and minor-unit conversion happen inside the batch
// transaction so a bad row aborts everything.
type RawRow struct {
	ExternalID  string `json:"external_id"`
	Timestamp   string `json:"timestamp"`
	Gross       string `json:"gross"`
	Fee         string `json:"fee"`
	Currency    string `json:"currency"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ImportRequest bundles one batch import call.
type ImportRequest struct {
	AccountID int64
	Kind      BatchKind
	Source    string // file name or export label, keyed for replace mode
	Replace   bool
	Rows      []RawRow
	ActorID   int64
}

// Validate checks request coherence before any database work.
func (in ImportRequest) Validate() error {
	if in.AccountID == 0 {
		return errors.New("importer: account required")
	}
	if in.Kind != KindActivity && in.Kind != KindPayout {
		return fmt.Errorf("importer: unknown batch kind %q", in.Kind)
	}
	if strings.TrimSpace(in.Source) == "" {
		return errors.New("importer: source label required")
	}
	if len(in.Rows) == 0 {
		return errors.New("importer: no rows supplied")
	}
	return nil
}

// ImportResult reports the outcome of a committed batch.
type ImportResult struct {
	BatchID          uuid.UUID `json:"batch_id"`
	Inserted         int       `json:"inserted"`
	SkippedDuplicate int       `json:"skipped_duplicate"`
	Replaced         int64     `json:"replaced"`
}

// RowError pinpoints one malformed row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ParseError aborts a batch transactionally; nothing is committed when any
// row is malformed. Duplicates are not parse errors and are skipped.
type ParseError struct {
	Rows []RowError
}

func (e *ParseError) Error() string {
	if len(e.Rows) == 1 {
		return fmt.Sprintf("importer: row %d: %s", e.Rows[0].Row, e.Rows[0].Reason)
	}
	return fmt.Sprintf("importer: %d malformed rows (first: row %d: %s)",
		len(e.Rows), e.Rows[0].Row, e.Rows[0].Reason)
}

// ErrCurrencyMismatch marks a row whose currency differs from the account's.
// One account carries one currency stream; cross-currency rows are rejected
// at the boundary.
var ErrCurrencyMismatch = errors.New("importer: row currency does not match account")
