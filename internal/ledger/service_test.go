package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

type fakeAccountRepo struct {
	accounts map[int64]Account
	byCode   map[string]int64
	txns     []Transaction
	nextID   int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[int64]Account{}, byCode: map[string]int64{}}
}

func (r *fakeAccountRepo) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	if _, exists := r.byCode[in.Code]; exists {
		return Account{}, shared.ErrDuplicate
	}
	r.nextID++
	a := Account{ID: r.nextID, Code: in.Code, Name: in.Name, Currency: in.Currency}
	r.accounts[a.ID] = a
	r.byCode[a.Code] = a.ID
	return a, nil
}

func (r *fakeAccountRepo) GetAccount(ctx context.Context, id int64) (Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) GetAccountByCode(ctx context.Context, code string) (Account, error) {
	id, ok := r.byCode[code]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return r.accounts[id], nil
}

func (r *fakeAccountRepo) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAccountRepo) InsertTransactions(ctx context.Context, tx pgx.Tx, rows []Transaction) (int, error) {
	r.txns = append(r.txns, rows...)
	return len(rows), nil
}

func (r *fakeAccountRepo) DeleteBySource(ctx context.Context, tx pgx.Tx, accountID int64, source string) (int64, error) {
	return 0, nil
}

// Mirrors the SQL aggregate: charge, refund and adjustment rows feed the
// activity totals, payout rows feed the payout totals with the sign flipped.
func (r *fakeAccountRepo) MonthTotals(ctx context.Context, tx pgx.Tx, accountID int64, start, end time.Time) (MonthTotals, error) {
	var totals MonthTotals
	for _, t := range r.matching(accountID, start, end) {
		totals.Count++
		switch t.Type {
		case TypeCharge, TypeRefund, TypeAdjustment:
			totals.ActivityGross += t.Gross
			totals.ActivityFees += t.Fee
		case TypePayout:
			totals.PayoutNet += -t.Gross
			totals.PayoutFees += t.Fee
		}
	}
	return totals, nil
}

func (r *fakeAccountRepo) matching(accountID int64, from, to time.Time) []Transaction {
	var out []Transaction
	for _, t := range r.txns {
		if t.AccountID == accountID && !t.OccurredAt.Before(from) && t.OccurredAt.Before(to) {
			out = append(out, t)
		}
	}
	return out
}

func (r *fakeAccountRepo) ListTransactions(ctx context.Context, accountID int64, from, to time.Time, limit, offset int) ([]Transaction, error) {
	matched := r.matching(accountID, from, to)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeAccountRepo) CountTransactions(ctx context.Context, accountID int64, from, to time.Time) (int, error) {
	return len(r.matching(accountID, from, to)), nil
}

func TestMonthTotalsIncludeAdjustments(t *testing.T) {
	repo := newFakeAccountRepo()
	ctx := context.Background()

	at := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	repo.txns = []Transaction{
		{AccountID: 1, ExternalID: "ch", OccurredAt: at, Type: TypeCharge, Gross: 10000, Fee: 300},
		{AccountID: 1, ExternalID: "re", OccurredAt: at, Type: TypeRefund, Gross: -2000},
		{AccountID: 1, ExternalID: "adj", OccurredAt: at, Type: TypeAdjustment, Gross: -150, Fee: 0},
		{AccountID: 1, ExternalID: "po", OccurredAt: at, Type: TypePayout, Gross: -5000, Fee: 120},
	}

	totals, err := repo.MonthTotals(ctx, nil, 1,
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, int64(7850), totals.ActivityGross)
	require.Equal(t, int64(300), totals.ActivityFees)
	require.Equal(t, int64(5000), totals.PayoutNet)
	require.Equal(t, int64(120), totals.PayoutFees)
	require.Equal(t, 4, totals.Count)
}

func TestCreateAccountValidatesInput(t *testing.T) {
	svc := NewService(newFakeAccountRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, CreateAccountInput{Name: "CGGE", Currency: "HKD"})
	require.Error(t, err)
	_, err = svc.CreateAccount(ctx, CreateAccountInput{Code: "cgge", Currency: "HKD"})
	require.Error(t, err)
	_, err = svc.CreateAccount(ctx, CreateAccountInput{Code: "cgge", Name: "CGGE", Currency: "HK"})
	require.Error(t, err)

	a, err := svc.CreateAccount(ctx, CreateAccountInput{Code: "cgge", Name: "CGGE", Currency: "HKD"})
	require.NoError(t, err)
	require.NotZero(t, a.ID)

	_, err = svc.CreateAccount(ctx, CreateAccountInput{Code: "cgge", Name: "Again", Currency: "HKD"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestListTransactionsPaginatesByMonth(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, CreateAccountInput{Code: "cgge", Name: "CGGE", Currency: "HKD"})
	require.NoError(t, err)

	for day := 1; day <= 5; day++ {
		repo.txns = append(repo.txns, Transaction{
			AccountID:  a.ID,
			ExternalID: string(rune('a' + day)),
			OccurredAt: time.Date(2025, 7, day, 12, 0, 0, 0, time.UTC),
			Type:       TypeCharge,
			Gross:      int64(day * 100),
		})
	}
	// Outside the month window.
	repo.txns = append(repo.txns, Transaction{
		AccountID:  a.ID,
		ExternalID: "aug",
		OccurredAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		Type:       TypeCharge,
		Gross:      999,
	})

	txns, p, err := svc.ListTransactions(ctx, a.ID, 2025, 7, 1, 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	require.Equal(t, 5, p.Total)
	require.Equal(t, 3, p.TotalPages)

	txns, _, err = svc.ListTransactions(ctx, a.ID, 2025, 7, 3, 2)
	require.NoError(t, err)
	require.Len(t, txns, 1)

	// No month filter returns everything.
	txns, p, err = svc.ListTransactions(ctx, a.ID, 0, 0, 1, 50)
	require.NoError(t, err)
	require.Len(t, txns, 6)
	require.Equal(t, 6, p.Total)
}
