package statement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Repository persists monthly statements.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	Get(ctx context.Context, accountID int64, year, month int) (Statement, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) (Statement, bool, error)
	GetPrevious(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) (Statement, bool, error)
	Upsert(ctx context.Context, tx pgx.Tx, st Statement) (Statement, error)
	ListLaterForUpdate(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) ([]Statement, error)
	List(ctx context.Context, accountID int64, year int) ([]Statement, error)
	MarkStaleFrom(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) error
	SetReconciliation(ctx context.Context, accountID int64, year, month int, status ReconStatus, discrepancy int64) error
	ListStale(ctx context.Context, accountID int64) ([]Statement, error)
	ListStaleAccounts(ctx context.Context) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const statementColumns = `id, account_id, year, month, opening_minor, gross_minor, fees_minor, net_minor, payouts_minor, closing_minor, currency, txn_count, recon_status, discrepancy_minor, stale, opening_overridden, generated_at`

func scanStatement(row pgx.Row) (Statement, error) {
	var st Statement
	var status string
	err := row.Scan(&st.ID, &st.AccountID, &st.Year, &st.Month, &st.Opening, &st.Gross,
		&st.Fees, &st.Net, &st.Payouts, &st.Closing, &st.Currency, &st.TxnCount,
		&status, &st.Discrepancy, &st.Stale, &st.OpeningOverridden, &st.GeneratedAt)
	if err != nil {
		return Statement{}, err
	}
	st.ReconStatus = ReconStatus(status)
	return st, nil
}

// WithTx executes fn inside a repeatable-read transaction. The generation
// cascade runs entirely within one transaction so a half-applied chain is
// never observable.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("statement: repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repository) Get(ctx context.Context, accountID int64, year, month int) (Statement, error) {
	st, err := scanStatement(r.pool.QueryRow(ctx,
		`SELECT `+statementColumns+` FROM monthly_statements WHERE account_id=$1 AND year=$2 AND month=$3`,
		accountID, year, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Statement{}, shared.ErrNotFound
		}
		return Statement{}, err
	}
	return st, nil
}

func (r *repository) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) (Statement, bool, error) {
	st, err := scanStatement(tx.QueryRow(ctx,
		`SELECT `+statementColumns+` FROM monthly_statements WHERE account_id=$1 AND year=$2 AND month=$3 FOR UPDATE`,
		accountID, year, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Statement{}, false, nil
		}
		return Statement{}, false, err
	}
	return st, true, nil
}

// GetPrevious loads the statement for the immediately preceding calendar
// month. A statement further back does not qualify; gaps break the chain.
func (r *repository) GetPrevious(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) (Statement, bool, error) {
	py, pm := PrevMonth(year, month)
	return r.GetForUpdate(ctx, tx, accountID, py, pm)
}

func (r *repository) Upsert(ctx context.Context, tx pgx.Tx, st Statement) (Statement, error) {
	saved := st
	err := tx.QueryRow(ctx, `INSERT INTO monthly_statements
(account_id, year, month, opening_minor, gross_minor, fees_minor, net_minor, payouts_minor, closing_minor, currency, txn_count, recon_status, discrepancy_minor, stale, opening_overridden, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
ON CONFLICT (account_id, year, month) DO UPDATE SET
opening_minor=EXCLUDED.opening_minor,
gross_minor=EXCLUDED.gross_minor,
fees_minor=EXCLUDED.fees_minor,
net_minor=EXCLUDED.net_minor,
payouts_minor=EXCLUDED.payouts_minor,
closing_minor=EXCLUDED.closing_minor,
currency=EXCLUDED.currency,
txn_count=EXCLUDED.txn_count,
recon_status=EXCLUDED.recon_status,
discrepancy_minor=EXCLUDED.discrepancy_minor,
stale=EXCLUDED.stale,
opening_overridden=EXCLUDED.opening_overridden,
generated_at=NOW()
RETURNING id, generated_at`,
		st.AccountID, st.Year, st.Month, st.Opening, st.Gross, st.Fees, st.Net,
		st.Payouts, st.Closing, st.Currency, st.TxnCount, string(st.ReconStatus),
		st.Discrepancy, st.Stale, st.OpeningOverridden).
		Scan(&saved.ID, &saved.GeneratedAt)
	if err != nil {
		return Statement{}, err
	}
	return saved, nil
}

func (r *repository) ListLaterForUpdate(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) ([]Statement, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+statementColumns+` FROM monthly_statements
WHERE account_id=$1 AND (year > $2 OR (year = $2 AND month > $3))
ORDER BY year, month
FOR UPDATE`, accountID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repository) List(ctx context.Context, accountID int64, year int) ([]Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM monthly_statements WHERE account_id=$1 ORDER BY year, month`
	args := []any{accountID}
	if year > 0 {
		query = `SELECT ` + statementColumns + ` FROM monthly_statements WHERE account_id=$1 AND year=$2 ORDER BY year, month`
		args = append(args, year)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// MarkStaleFrom flags the statement for (year, month) and every later month
// as stale. Imports call this inside their own transaction so a failed batch
// never leaves phantom staleness.
func (r *repository) MarkStaleFrom(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) error {
	_, err := tx.Exec(ctx,
		`UPDATE monthly_statements SET stale=TRUE
WHERE account_id=$1 AND (year > $2 OR (year = $2 AND month >= $3))`,
		accountID, year, month)
	return err
}

func (r *repository) SetReconciliation(ctx context.Context, accountID int64, year, month int, status ReconStatus, discrepancy int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE monthly_statements SET recon_status=$4, discrepancy_minor=$5
WHERE account_id=$1 AND year=$2 AND month=$3`,
		accountID, year, month, string(status), discrepancy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListStale(ctx context.Context, accountID int64) ([]Statement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+statementColumns+` FROM monthly_statements WHERE account_id=$1 AND stale ORDER BY year, month`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repository) ListStaleAccounts(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT account_id FROM monthly_statements WHERE stale ORDER BY account_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collect(rows pgx.Rows) ([]Statement, error) {
	var out []Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
