package statement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/ledger"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// LedgerReader is the slice of the ledger the aggregator needs.
type LedgerReader interface {
	GetAccount(ctx context.Context, id int64) (ledger.Account, error)
	MonthTotals(ctx context.Context, tx pgx.Tx, accountID int64, start, end time.Time) (ledger.MonthTotals, error)
}

// Locker serializes generation per account.
type Locker interface {
	Acquire(ctx context.Context, accountID int64) (func(), error)
}

// Service orchestrates statement generation and the roll-forward cascade.
type Service struct {
	repo   Repository
	ledger LedgerReader
	locker Locker
	audit  *shared.AuditLogger
	now    func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo Repository, ledgerReader LedgerReader, locker Locker, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, ledger: ledgerReader, locker: locker, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Generate computes and persists the statement for one month, then cascades
// forward over every later stored month whose opening balance the change
// invalidated. The whole chain commits in one transaction under the
// per-account lock.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (Statement, error) {
	if err := in.Validate(); err != nil {
		return Statement{}, err
	}

	account, err := s.ledger.GetAccount(ctx, in.AccountID)
	if err != nil {
		return Statement{}, err
	}

	release, err := s.locker.Acquire(ctx, in.AccountID)
	if err != nil {
		if errors.Is(err, shared.ErrLockNotAcquired) {
			return Statement{}, ErrCascadeConflict
		}
		return Statement{}, err
	}
	defer release()

	var result Statement
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var e error
		result, e = s.generateChain(ctx, tx, account, in.Year, in.Month, in.OpeningOverride)
		return e
	})
	if err != nil {
		return Statement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "statement.generate",
			Entity:   "monthly_statement",
			EntityID: fmt.Sprintf("%d:%04d-%02d", in.AccountID, in.Year, in.Month),
			Meta: map[string]any{
				"closing_minor": result.Closing,
				"txn_count":     result.TxnCount,
				"overridden":    result.OpeningOverridden,
			},
		})
	}
	return result, nil
}

func (s *Service) generateChain(ctx context.Context, tx pgx.Tx, account ledger.Account, year, month int, override *int64) (Statement, error) {
	existing, existed, err := s.repo.GetForUpdate(ctx, tx, account.ID, year, month)
	if err != nil {
		return Statement{}, err
	}

	opening, overridden, err := s.resolveOpening(ctx, tx, account.ID, year, month, override, existing, existed)
	if err != nil {
		return Statement{}, err
	}

	result, err := s.compute(ctx, tx, account, year, month, opening, overridden)
	if err != nil {
		return Statement{}, err
	}

	if existed && existing.Closing == result.Closing {
		return result, nil
	}

	// Closing changed (or the month is new): every later stored month's
	// opening input is now invalid. Regenerate them in order.
	laters, err := s.repo.ListLaterForUpdate(ctx, tx, account.ID, year, month)
	if err != nil {
		return Statement{}, err
	}
	prev := result
	for _, next := range laters {
		opening := next.Opening
		overridden := next.OpeningOverridden
		if py, pm := PrevMonth(next.Year, next.Month); py == prev.Year && pm == prev.Month {
			opening = prev.Closing
			overridden = false
		} else if p, ok, err := s.repo.GetPrevious(ctx, tx, account.ID, next.Year, next.Month); err != nil {
			return Statement{}, err
		} else if ok {
			opening = p.Closing
			overridden = false
		}
		regenerated, err := s.compute(ctx, tx, account, next.Year, next.Month, opening, overridden)
		if err != nil {
			return Statement{}, err
		}
		prev = regenerated
	}
	return result, nil
}

// resolveOpening applies the opening-balance rules: explicit override wins;
// otherwise the immediately preceding month's closing; otherwise a stored
// override on the same month survives regeneration; otherwise the chain
// cannot start.
func (s *Service) resolveOpening(ctx context.Context, tx pgx.Tx, accountID int64, year, month int, override *int64, existing Statement, existed bool) (int64, bool, error) {
	if override != nil {
		return *override, true, nil
	}
	prev, ok, err := s.repo.GetPrevious(ctx, tx, accountID, year, month)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return prev.Closing, false, nil
	}
	if existed && existing.OpeningOverridden {
		return existing.Opening, true, nil
	}
	return 0, false, ErrMissingOpeningBalance
}

// compute aggregates one month and persists the statement. A month with no
// transactions still produces a row (closing == opening) so the roll-forward
// chain survives inactive months.
func (s *Service) compute(ctx context.Context, tx pgx.Tx, account ledger.Account, year, month int, opening int64, overridden bool) (Statement, error) {
	start, end := MonthWindow(year, month)
	totals, err := s.ledger.MonthTotals(ctx, tx, account.ID, start, end)
	if err != nil {
		return Statement{}, err
	}

	gross := totals.ActivityGross
	fees := totals.ActivityFees + totals.PayoutFees
	payouts := totals.PayoutNet
	net := gross - fees

	st := Statement{
		AccountID:         account.ID,
		Year:              year,
		Month:             month,
		Opening:           opening,
		Gross:             gross,
		Fees:              fees,
		Net:               net,
		Payouts:           payouts,
		Closing:           opening + net - payouts,
		Currency:          account.Currency,
		TxnCount:          totals.Count,
		ReconStatus:       ReconUnverified,
		Discrepancy:       0,
		Stale:             false,
		OpeningOverridden: overridden,
		GeneratedAt:       s.now().UTC(),
	}
	return s.repo.Upsert(ctx, tx, st)
}

// Get returns one stored statement.
func (s *Service) Get(ctx context.Context, accountID int64, year, month int) (Statement, error) {
	return s.repo.Get(ctx, accountID, year, month)
}

// List returns an account's statements, optionally filtered by year.
func (s *Service) List(ctx context.Context, accountID int64, year int) ([]Statement, error) {
	return s.repo.List(ctx, accountID, year)
}

// SetReconciliation records a validation outcome without touching figures.
func (s *Service) SetReconciliation(ctx context.Context, accountID int64, year, month int, status ReconStatus, discrepancy int64) error {
	return s.repo.SetReconciliation(ctx, accountID, year, month, status, discrepancy)
}

// RefreshStale regenerates every stale statement for one account, earliest
// first. Each regeneration cascades, so later stale months usually clear in
// the first pass; the loop guards against months staled by separate imports.
func (s *Service) RefreshStale(ctx context.Context, accountID int64) (int, error) {
	refreshed := 0
	for i := 0; i < 240; i++ {
		stale, err := s.repo.ListStale(ctx, accountID)
		if err != nil {
			return refreshed, err
		}
		if len(stale) == 0 {
			return refreshed, nil
		}
		target := stale[0]
		if _, err := s.Generate(ctx, GenerateInput{
			AccountID: accountID,
			Year:      target.Year,
			Month:     target.Month,
		}); err != nil {
			return refreshed, err
		}
		refreshed++
	}
	return refreshed, fmt.Errorf("statement: refresh did not converge for account %d", accountID)
}

// StaleAccounts lists accounts holding at least one stale statement.
func (s *Service) StaleAccounts(ctx context.Context) ([]int64, error) {
	return s.repo.ListStaleAccounts(ctx)
}
