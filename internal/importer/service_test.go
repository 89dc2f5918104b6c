package importer

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/ledger"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

type txnKey struct {
	accountID  int64
	externalID string
}

type staleMark struct {
	accountID int64
	year      int
	month     int
}

type fakeStore struct {
	account ledger.Account
	txns    map[txnKey]ledger.Transaction
	batches []BatchRecord
	stale   []staleMark
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		account: ledger.Account{ID: 1, Code: "cgge", Name: "CGGE", Currency: "HKD"},
		txns:    map[txnKey]ledger.Transaction{},
	}
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	snapshot := make(map[txnKey]ledger.Transaction, len(s.txns))
	for k, v := range s.txns {
		snapshot[k] = v
	}
	batches := len(s.batches)
	stale := len(s.stale)
	if err := fn(ctx, nil); err != nil {
		s.txns = snapshot
		s.batches = s.batches[:batches]
		s.stale = s.stale[:stale]
		return err
	}
	return nil
}

func (s *fakeStore) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	if id != s.account.ID {
		return ledger.Account{}, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *fakeStore) InsertTransactions(ctx context.Context, tx pgx.Tx, rows []ledger.Transaction) (int, error) {
	inserted := 0
	for _, row := range rows {
		key := txnKey{row.AccountID, row.ExternalID}
		if _, exists := s.txns[key]; exists {
			continue
		}
		s.txns[key] = row
		inserted++
	}
	return inserted, nil
}

func (s *fakeStore) DeleteBySource(ctx context.Context, tx pgx.Tx, accountID int64, source string) (int64, error) {
	var deleted int64
	for key, row := range s.txns {
		if row.AccountID == accountID && row.Source == source {
			delete(s.txns, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeStore) InsertBatch(ctx context.Context, tx pgx.Tx, rec BatchRecord) error {
	s.batches = append(s.batches, rec)
	return nil
}

func (s *fakeStore) MarkStatementsStaleFrom(ctx context.Context, tx pgx.Tx, accountID int64, year, month int) error {
	s.stale = append(s.stale, staleMark{accountID, year, month})
	return nil
}

type fakeLocker struct {
	err      error
	acquired int
}

func (l *fakeLocker) Acquire(ctx context.Context, accountID int64) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() {}, nil
}

func activityRequest(rows ...RawRow) ImportRequest {
	return ImportRequest{
		AccountID: 1,
		Kind:      KindActivity,
		Source:    "activity-2025-07.csv",
		Rows:      rows,
		ActorID:   7,
	}
}

func TestImportBatchInsertsAndCounts(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{}, nil)

	result, err := svc.ImportBatch(context.Background(), activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-07-03 10:15:00", Gross: "120.50", Fee: "3.49", Currency: "HKD", Category: "charge"},
		RawRow{ExternalID: "txn_2", Timestamp: "2025-07-05", Gross: "80.00", Category: "refund"},
	))
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)
	require.Zero(t, result.SkippedDuplicate)
	require.Len(t, store.txns, 2)

	charge := store.txns[txnKey{1, "txn_1"}]
	require.Equal(t, ledger.TypeCharge, charge.Type)
	require.Equal(t, int64(12050), charge.Gross)
	require.Equal(t, int64(349), charge.Fee)
	require.Equal(t, "HKD", charge.Currency)

	// Refunds are stored negative even when the export reports them positive.
	refund := store.txns[txnKey{1, "txn_2"}]
	require.Equal(t, ledger.TypeRefund, refund.Type)
	require.Equal(t, int64(-8000), refund.Gross)

	require.Len(t, store.batches, 1)
	require.Equal(t, 2, store.batches[0].Inserted)
	require.Equal(t, int64(7), store.batches[0].ActorID)
}

func TestImportBatchIdempotentReimport(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{}, nil)
	ctx := context.Background()

	req := activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-07-03", Gross: "10.00", Category: "charge"},
		RawRow{ExternalID: "txn_2", Timestamp: "2025-07-04", Gross: "20.00", Category: "charge"},
	)
	_, err := svc.ImportBatch(ctx, req)
	require.NoError(t, err)

	again, err := svc.ImportBatch(ctx, req)
	require.NoError(t, err)
	require.Zero(t, again.Inserted)
	require.Equal(t, 2, again.SkippedDuplicate)
	require.Len(t, store.txns, 2)
}

func TestImportBatchAbortsWholeBatchOnMalformedRow(t *testing.T) {
	store := newFakeStore()
	locker := &fakeLocker{}
	svc := NewService(store, locker, nil)

	_, err := svc.ImportBatch(context.Background(), activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-07-03", Gross: "10.00", Category: "charge"},
		RawRow{ExternalID: "txn_2", Timestamp: "2025-07-04", Gross: "not-a-number", Category: "charge"},
		RawRow{ExternalID: "", Timestamp: "2025-07-05", Gross: "5.00", Category: "charge"},
	))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	// Every malformed row is reported, not just the first.
	require.Len(t, parseErr.Rows, 2)
	require.Equal(t, 1, parseErr.Rows[0].Row)
	require.Equal(t, 2, parseErr.Rows[1].Row)

	// Nothing was persisted and the lock was never taken.
	require.Empty(t, store.txns)
	require.Empty(t, store.batches)
	require.Zero(t, locker.acquired)
}

func TestImportBatchPayoutFeePassthrough(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{}, nil)

	req := ImportRequest{
		AccountID: 1,
		Kind:      KindPayout,
		Source:    "payouts-2025-07.csv",
		Rows: []RawRow{
			{ExternalID: "po_1", Timestamp: "2025-07-10", Gross: "5000.00", Fee: "12.50", Category: "payout"},
			{ExternalID: "po_2", Timestamp: "2025-07-20", Gross: "3356.57", Category: "transfer_to_bank"},
		},
	}
	_, err := svc.ImportBatch(context.Background(), req)
	require.NoError(t, err)

	withFee := store.txns[txnKey{1, "po_1"}]
	require.Equal(t, ledger.TypePayout, withFee.Type)
	require.Equal(t, int64(-500000), withFee.Gross)
	require.Equal(t, int64(1250), withFee.Fee)

	// Missing fee column means zero, never an inferred amount.
	noFee := store.txns[txnKey{1, "po_2"}]
	require.Equal(t, ledger.TypePayout, noFee.Type)
	require.Zero(t, noFee.Fee)
}

func TestImportBatchReplaceMode(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{}, nil)
	ctx := context.Background()

	first := activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-07-03", Gross: "10.00", Category: "charge"},
		RawRow{ExternalID: "txn_2", Timestamp: "2025-07-04", Gross: "20.00", Category: "charge"},
	)
	_, err := svc.ImportBatch(ctx, first)
	require.NoError(t, err)

	corrected := activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-07-03", Gross: "11.00", Category: "charge"},
		RawRow{ExternalID: "txn_3", Timestamp: "2025-07-06", Gross: "30.00", Category: "charge"},
	)
	corrected.Replace = true

	result, err := svc.ImportBatch(ctx, corrected)
	require.NoError(t, err)
	require.Equal(t, int64(2), result.Replaced)
	require.Equal(t, 2, result.Inserted)
	require.Len(t, store.txns, 2)
	require.Equal(t, int64(1100), store.txns[txnKey{1, "txn_1"}].Gross)
	require.NotContains(t, store.txns, txnKey{1, "txn_2"})
}

func TestImportBatchMarksStatementsStale(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{}, nil)

	_, err := svc.ImportBatch(context.Background(), activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-08-15", Gross: "10.00", Category: "charge"},
		RawRow{ExternalID: "txn_2", Timestamp: "2025-06-02", Gross: "20.00", Category: "charge"},
	))
	require.NoError(t, err)

	// Stale from the earliest affected month onward.
	require.Equal(t, []staleMark{{1, 2025, 6}}, store.stale)
}

func TestImportBatchRejectsCurrencyMismatch(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{}, nil)

	_, err := svc.ImportBatch(context.Background(), activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-07-03", Gross: "10.00", Currency: "USD", Category: "charge"},
	))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, parseErr.Rows[0].Reason, "currency")
	require.Empty(t, store.txns)
}

func TestImportBatchLockFailurePropagates(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{err: shared.ErrLockNotAcquired}, nil)

	_, err := svc.ImportBatch(context.Background(), activityRequest(
		RawRow{ExternalID: "txn_1", Timestamp: "2025-07-03", Gross: "10.00", Category: "charge"},
	))
	require.ErrorIs(t, err, shared.ErrLockNotAcquired)
	require.Empty(t, store.txns)
}

func TestImportBatchValidatesRequest(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeLocker{}, nil)
	ctx := context.Background()

	_, err := svc.ImportBatch(ctx, ImportRequest{Kind: KindActivity, Source: "x", Rows: []RawRow{{}}})
	require.Error(t, err)
	_, err = svc.ImportBatch(ctx, ImportRequest{AccountID: 1, Kind: "bogus", Source: "x", Rows: []RawRow{{}}})
	require.Error(t, err)
	_, err = svc.ImportBatch(ctx, ImportRequest{AccountID: 1, Kind: KindActivity, Source: "x"})
	require.Error(t, err)
}
