package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Repository persists accounts and transactions.
type Repository interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetAccountByCode(ctx context.Context, code string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	InsertTransactions(ctx context.Context, tx pgx.Tx, rows []Transaction) (inserted int, err error)
	DeleteBySource(ctx context.Context, tx pgx.Tx, accountID int64, source string) (int64, error)
	MonthTotals(ctx context.Context, tx pgx.Tx, accountID int64, start, end time.Time) (MonthTotals, error)
	ListTransactions(ctx context.Context, accountID int64, from, to time.Time, limit, offset int) ([]Transaction, error)
	CountTransactions(ctx context.Context, accountID int64, from, to time.Time) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, currency)
VALUES ($1, $2, $3)
RETURNING id, code, name, currency, created_at, updated_at`,
		strings.TrimSpace(in.Code), strings.TrimSpace(in.Name), strings.ToUpper(strings.TrimSpace(in.Currency))).
		Scan(&a.ID, &a.Code, &a.Name, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicate
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetAccount(ctx context.Context, id int64) (Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx, `SELECT id, code, name, currency, created_at, updated_at FROM accounts WHERE id=$1`, id))
}

func (r *repository) GetAccountByCode(ctx context.Context, code string) (Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx, `SELECT id, code, name, currency, created_at, updated_at FROM accounts WHERE code=$1`, code))
}

func (r *repository) scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, currency, created_at, updated_at FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Currency, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// InsertTransactions bulk-inserts rows, skipping duplicates on
// (account_id, external_id). Legitimate duplicates are not an error; the
// caller receives the inserted count and infers skips.
func (r *repository) InsertTransactions(ctx context.Context, tx pgx.Tx, rows []Transaction) (int, error) {
	inserted := 0
	for _, t := range rows {
		tag, err := tx.Exec(ctx, `INSERT INTO transactions
(account_id, external_id, occurred_at, type, gross_minor, fee_minor, currency, status, description, batch_id, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (account_id, external_id) DO NOTHING`,
			t.AccountID, t.ExternalID, t.OccurredAt.UTC(), string(t.Type), t.Gross, t.Fee,
			t.Currency, t.Status, t.Description, t.BatchID, t.Source)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *repository) DeleteBySource(ctx context.Context, tx pgx.Tx, accountID int64, source string) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE account_id=$1 AND source=$2`, accountID, source)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MonthTotals sums one account's activity over the half-open window
// [start, end). Payout rows are stored with negative gross; the query flips
// the sign so the statement reports payouts as a positive outflow.
func (r *repository) MonthTotals(ctx context.Context, tx pgx.Tx, accountID int64, start, end time.Time) (MonthTotals, error) {
	const query = `SELECT
COALESCE(SUM(CASE WHEN type IN ('charge','refund','adjustment') THEN gross_minor ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN type IN ('charge','refund','adjustment') THEN fee_minor ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN type = 'payout' THEN -gross_minor ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN type = 'payout' THEN fee_minor ELSE 0 END), 0),
COUNT(*)
FROM transactions
WHERE account_id=$1 AND occurred_at >= $2 AND occurred_at < $3`

	var totals MonthTotals
	var row pgx.Row
	if tx != nil {
		row = tx.QueryRow(ctx, query, accountID, start.UTC(), end.UTC())
	} else {
		row = r.db.QueryRow(ctx, query, accountID, start.UTC(), end.UTC())
	}
	err := row.Scan(&totals.ActivityGross, &totals.ActivityFees, &totals.PayoutNet, &totals.PayoutFees, &totals.Count)
	if err != nil {
		return MonthTotals{}, err
	}
	return totals, nil
}

func (r *repository) ListTransactions(ctx context.Context, accountID int64, from, to time.Time, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT id, account_id, external_id, occurred_at, type, gross_minor, fee_minor, currency, status, description, batch_id, source, created_at
FROM transactions
WHERE account_id=$1 AND occurred_at >= $2 AND occurred_at < $3
ORDER BY occurred_at, id
LIMIT $4 OFFSET $5`, accountID, from.UTC(), to.UTC(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		var t Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.ExternalID, &t.OccurredAt, &typ, &t.Gross, &t.Fee, &t.Currency, &t.Status, &t.Description, &t.BatchID, &t.Source, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = TransactionType(typ)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *repository) CountTransactions(ctx context.Context, accountID int64, from, to time.Time) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id=$1 AND occurred_at >= $2 AND occurred_at < $3`,
		accountID, from.UTC(), to.UTC()).Scan(&total)
	return total, err
}
