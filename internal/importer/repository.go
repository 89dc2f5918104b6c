package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/ledger"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
)

// pgStore adapts the ledger and statement repositories behind the importer's
// Store interface, adding batch provenance persistence.
type pgStore struct {
	pool       *pgxpool.Pool
	ledger     ledger.Repository
	statements statement.Repository
}

// NewStore constructs the production Store.
func NewStore(pool *pgxpool.Pool, ledgerRepo ledger.Repository, statementRepo statement.Repository) Store {
	return &pgStore{pool: pool, ledger: ledgerRepo, statements: statementRepo}
}

// WithTx executes fn inside a repeatable-read transaction.
func (s *pgStore) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("importer: store not initialised")
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
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

func (s *pgStore) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	return s.ledger.GetAccount(ctx, id)
}

func (s *pgStore) InsertTransactions(ctx context.Context, tx pgx.Tx, rows []ledger.Transaction) (int, error) {
	return s.ledger.InsertTransactions(ctx, tx, rows)
}

func (s *pgStore) DeleteBySource(ctx context.Context, tx pgx.Tx, accountID int64, source string) (int64, error) {
	return s.ledger.DeleteBySource(ctx, tx, accountID, source)
}

func (s *pgStore) InsertBatch(ctx context.Context, tx pgx.Tx, rec BatchRecord) error {
	_, err := tx.Exec(ctx, `INSERT INTO import_batches
(id, account_id, kind, source, row_count, inserted, skipped, replaced, imported_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.AccountID, string(rec.Kind), rec.Source, rec.RowCount,
		rec.Inserted, rec.Skipped, rec.Replaced, rec.ActorID)
	return err
}

func (s *pgStore) MarkStatementsStaleFrom(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) error {
	return s.statements.MarkStaleFrom(ctx, tx, accountID, year, month)
}
