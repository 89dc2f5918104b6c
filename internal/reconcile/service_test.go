package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
)

type fakeStatements struct {
	stored      statement.Statement
	found       bool
	status      statement.ReconStatus
	discrepancy int64
	setCalls    int
}

func (f *fakeStatements) Get(ctx context.Context, accountID int64, year, month int) (statement.Statement, error) {
	if !f.found {
		return statement.Statement{}, shared.ErrNotFound
	}
	return f.stored, nil
}

func (f *fakeStatements) SetReconciliation(ctx context.Context, accountID int64, year, month int, status statement.ReconStatus, discrepancy int64) error {
	f.setCalls++
	f.status = status
	f.discrepancy = discrepancy
	return nil
}

func storedStatement() statement.Statement {
	return statement.Statement{
		AccountID: 1,
		Year:      2025,
		Month:     7,
		Opening:   36738,
		Gross:     1467441,
		Fees:      79946,
		Net:       1387495,
		Payouts:   835657,
		Closing:   588576,
		Currency:  "HKD",
	}
}

func TestValidateMatched(t *testing.T) {
	stmts := &fakeStatements{stored: storedStatement(), found: true}
	svc := NewService(stmts, nil)

	result, err := svc.Validate(context.Background(), 1, 2025, 7, ExternalSummary{
		Opening: 36738,
		Gross:   1467441,
		Fees:    79946,
		Payouts: 835657,
		Closing: 588576,
	}, 9)
	require.NoError(t, err)
	require.Equal(t, StatusMatched, result.Status)
	require.Empty(t, result.Discrepancies)
	require.Equal(t, statement.ReconMatched, stmts.status)
	require.Zero(t, stmts.discrepancy)
}

func TestValidateOneCentDiscrepancy(t *testing.T) {
	stmts := &fakeStatements{stored: storedStatement(), found: true}
	svc := NewService(stmts, nil)

	result, err := svc.Validate(context.Background(), 1, 2025, 7, ExternalSummary{
		Opening: 36738,
		Gross:   1467441,
		Fees:    79946,
		Payouts: 835657,
		Closing: 588575, // one minor unit off
	}, 9)
	require.NoError(t, err)
	require.Equal(t, StatusDiscrepant, result.Status)
	require.Len(t, result.Discrepancies, 1)

	delta := result.Discrepancies[0]
	require.Equal(t, FieldClosing, delta.Field)
	require.Equal(t, int64(588575), delta.Expected)
	require.Equal(t, int64(588576), delta.Actual)
	require.Equal(t, int64(1), delta.Delta)

	require.Equal(t, statement.ReconDiscrepant, stmts.status)
	require.Equal(t, int64(1), stmts.discrepancy)
}

func TestValidateNeverCorrectsStoredFigures(t *testing.T) {
	stmts := &fakeStatements{stored: storedStatement(), found: true}
	svc := NewService(stmts, nil)

	before := stmts.stored
	_, err := svc.Validate(context.Background(), 1, 2025, 7, ExternalSummary{
		Opening: 1,
		Gross:   2,
		Fees:    3,
		Payouts: 4,
		Closing: 5,
	}, 9)
	require.NoError(t, err)
	// Only the reconciliation outcome was written; the figures are untouched.
	require.Equal(t, before, stmts.stored)
	require.Equal(t, 1, stmts.setCalls)
}

func TestValidateHeadlinePicksLargestWhenClosingMatches(t *testing.T) {
	stmts := &fakeStatements{stored: storedStatement(), found: true}
	svc := NewService(stmts, nil)

	result, err := svc.Validate(context.Background(), 1, 2025, 7, ExternalSummary{
		Opening: 36738,
		Gross:   1467451, // off by -10
		Fees:    79646,   // off by +300
		Payouts: 835657,
		Closing: 588576,
	}, 9)
	require.NoError(t, err)
	require.Equal(t, StatusDiscrepant, result.Status)
	require.Len(t, result.Discrepancies, 2)
	require.Equal(t, int64(300), stmts.discrepancy)
}

func TestValidateMissingStatement(t *testing.T) {
	stmts := &fakeStatements{}
	svc := NewService(stmts, nil)

	_, err := svc.Validate(context.Background(), 1, 2025, 7, ExternalSummary{}, 9)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, stmts.setCalls)
}

func TestRawSummaryParse(t *testing.T) {
	raw := RawSummary{
		Opening: "367.38",
		Gross:   "14674.41",
		Fees:    "799.46",
		Payouts: "8356.57",
		Closing: "5885.76",
	}
	sum, err := raw.Parse()
	require.NoError(t, err)
	require.Equal(t, ExternalSummary{
		Opening: 36738,
		Gross:   1467441,
		Fees:    79946,
		Payouts: 835657,
		Closing: 588576,
	}, sum)

	raw.Fees = "not-money"
	_, err = raw.Parse()
	require.Error(t, err)
	require.Contains(t, err.Error(), FieldFees)
}
