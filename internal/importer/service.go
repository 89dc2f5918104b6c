package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/ledger"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/money"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Store is the persistence surface the importer drives. Every mutation runs
// inside one transaction so a failed batch leaves no trace.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	GetAccount(ctx context.Context, id int64) (ledger.Account, error)
	InsertTransactions(ctx context.Context, tx pgx.Tx, rows []ledger.Transaction) (int, error)
	DeleteBySource(ctx context.Context, tx pgx.Tx, accountID int64, source string) (int64, error)
	InsertBatch(ctx context.Context, tx pgx.Tx, rec BatchRecord) error
	MarkStatementsStaleFrom(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) error
}

// BatchRecord captures batch provenance in import_batches.
type BatchRecord struct {
	ID        uuid.UUID
	AccountID int64
	Kind      BatchKind
	Source    string
	RowCount  int
	Inserted  int
	Skipped   int
	Replaced  bool
	ActorID   int64
}

// Locker serializes imports with statement generation per account.
type Locker interface {
	Acquire(ctx context.Context, accountID int64) (func(), error)
}

// Service runs batch imports.
type Service struct {
	store  Store
	locker Locker
	audit  *shared.AuditLogger
	now    func() time.Time
}

// NewService constructs a Service instance.
func NewService(store Store, locker Locker, audit *shared.AuditLogger) *Service {
	return &Service{store: store, locker: locker, audit: audit, now: time.Now}
}

// Timestamp layouts accepted from vendor exports, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ImportBatch parses and persists one batch. Malformed rows abort the whole
// batch with *ParseError; duplicate external ids are skipped and counted.
// In replace mode, prior rows from the same (account, source) are deleted
// first inside the same transaction.
func (s *Service) ImportBatch(ctx context.Context, in ImportRequest) (ImportResult, error) {
	if err := in.Validate(); err != nil {
		return ImportResult{}, err
	}

	account, err := s.store.GetAccount(ctx, in.AccountID)
	if err != nil {
		return ImportResult{}, err
	}

	batchID := uuid.New()
	txns, rowErrs := s.parseRows(account, in, batchID)
	if len(rowErrs) > 0 {
		return ImportResult{}, &ParseError{Rows: rowErrs}
	}

	release, err := s.locker.Acquire(ctx, in.AccountID)
	if err != nil {
		return ImportResult{}, err
	}
	defer release()

	result := ImportResult{BatchID: batchID}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if in.Replace {
			replaced, err := s.store.DeleteBySource(ctx, tx, in.AccountID, in.Source)
			if err != nil {
				return err
			}
			result.Replaced = replaced
		}
		inserted, err := s.store.InsertTransactions(ctx, tx, txns)
		if err != nil {
			return err
		}
		result.Inserted = inserted
		result.SkippedDuplicate = len(txns) - inserted

		if result.Inserted > 0 || result.Replaced > 0 {
			year, month := earliestMonth(txns)
			if err := s.store.MarkStatementsStaleFrom(ctx, tx, in.AccountID, year, month); err != nil {
				return err
			}
		}

		return s.store.InsertBatch(ctx, tx, BatchRecord{
			ID:        batchID,
			AccountID: in.AccountID,
			Kind:      in.Kind,
			Source:    in.Source,
			RowCount:  len(txns),
			Inserted:  result.Inserted,
			Skipped:   result.SkippedDuplicate,
			Replaced:  in.Replace,
			ActorID:   in.ActorID,
		})
	})
	if err != nil {
		return ImportResult{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "ledger.import",
			Entity:   "import_batch",
			EntityID: batchID.String(),
			Meta: map[string]any{
				"account_id": in.AccountID,
				"kind":       string(in.Kind),
				"source":     in.Source,
				"inserted":   result.Inserted,
				"skipped":    result.SkippedDuplicate,
			},
		})
	}
	return result, nil
}

func (s *Service) parseRows(account ledger.Account, in ImportRequest, batchID uuid.UUID) ([]ledger.Transaction, []RowError) {
	txns := make([]ledger.Transaction, 0, len(in.Rows))
	var rowErrs []RowError
	fail := func(i int, reason string) {
		rowErrs = append(rowErrs, RowError{Row: i, Reason: reason})
	}

	for i, raw := range in.Rows {
		if strings.TrimSpace(raw.ExternalID) == "" {
			fail(i, "missing external id")
			continue
		}

		occurredAt, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			fail(i, err.Error())
			continue
		}

		txnType, err := mapCategory(raw.Category)
		if err != nil {
			fail(i, err.Error())
			continue
		}

		gross, err := parseAmount(raw.Gross)
		if err != nil {
			fail(i, fmt.Sprintf("unparseable gross amount %q", raw.Gross))
			continue
		}

		// Payout fee is a first-class field: zero only when the vendor
		// omits the column, never an assumption.
		fee := int64(0)
		if strings.TrimSpace(raw.Fee) != "" {
			fee, err = parseAmount(raw.Fee)
			if err != nil {
				fail(i, fmt.Sprintf("unparseable fee amount %q", raw.Fee))
				continue
			}
		}

		currency := strings.ToUpper(strings.TrimSpace(raw.Currency))
		if currency == "" {
			currency = account.Currency
		}
		if currency != account.Currency {
			fail(i, fmt.Sprintf("%v: %s vs account %s", ErrCurrencyMismatch, currency, account.Currency))
			continue
		}

		// Refunds and payouts reduce the balance and are stored negative
		// regardless of the sign convention in the export.
		if txnType == ledger.TypeRefund || txnType == ledger.TypePayout {
			gross = -abs(gross)
		}

		txns = append(txns, ledger.Transaction{
			AccountID:   account.ID,
			ExternalID:  strings.TrimSpace(raw.ExternalID),
			OccurredAt:  occurredAt,
			Type:        txnType,
			Gross:       gross,
			Fee:         fee,
			Currency:    currency,
			Status:      "available",
			Description: raw.Description,
			BatchID:     batchID,
			Source:      in.Source,
		})
	}
	return txns, rowErrs
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func mapCategory(category string) (ledger.TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "charge", "payment":
		return ledger.TypeCharge, nil
	case "refund":
		return ledger.TypeRefund, nil
	case "payout", "transfer", "transfer_to_bank", "bank_transfer":
		return ledger.TypePayout, nil
	case "adjustment":
		return ledger.TypeAdjustment, nil
	default:
		return "", fmt.Errorf("unknown category %q", category)
	}
}

func earliestMonth(txns []ledger.Transaction) (int, int) {
	earliest := txns[0].OccurredAt
	for _, t := range txns[1:] {
		if t.OccurredAt.Before(earliest) {
			earliest = t.OccurredAt
		}
	}
	return earliest.UTC().Year(), int(earliest.UTC().Month())
}

func parseAmount(s string) (int64, error) {
	return money.ParseMinorUnits(s)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
