package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadActivityCSVMapsAliasedHeaders(t *testing.T) {
	input := strings.Join([]string{
		"Balance Transaction ID,Created (UTC),Amount,Fee,Currency,Reporting Category,Description",
		"txn_001,2025-07-03 10:15:00,120.50,3.49,HKD,charge,Course enrolment",
		"txn_002,2025-07-05 09:00:00,-80.00,0.00,HKD,refund,Withdrawal refund",
	}, "\n")

	rows, err := ReadActivityCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "txn_001", rows[0].ExternalID)
	require.Equal(t, "2025-07-03 10:15:00", rows[0].Timestamp)
	require.Equal(t, "120.50", rows[0].Gross)
	require.Equal(t, "3.49", rows[0].Fee)
	require.Equal(t, "HKD", rows[0].Currency)
	require.Equal(t, "charge", rows[0].Category)
	require.Equal(t, "Course enrolment", rows[0].Description)

	require.Equal(t, "refund", rows[1].Category)
	require.Equal(t, "-80.00", rows[1].Gross)
}

func TestReadPayoutCSVDefaultsCategory(t *testing.T) {
	input := strings.Join([]string{
		"payout_id,arrival_date,amount,fee,currency",
		"po_001,2025-07-10,5000.00,12.50,HKD",
	}, "\n")

	rows, err := ReadPayoutCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "po_001", rows[0].ExternalID)
	require.Equal(t, "payout", rows[0].Category)
	require.Equal(t, "12.50", rows[0].Fee)
}

func TestReadCSVRejectsMissingIDColumn(t *testing.T) {
	input := "created,amount,fee\n2025-07-01,10.00,0.30\n"
	_, err := ReadActivityCSV(strings.NewReader(input))
	require.Error(t, err)
	require.Contains(t, err.Error(), "external id")
}

func TestReadCSVRaggedRowsTolerated(t *testing.T) {
	// Vendor exports occasionally drop trailing empty columns.
	input := strings.Join([]string{
		"id,created,amount,fee,currency,type,description",
		"txn_003,2025-07-01,15.00,0.45,HKD,charge",
	}, "\n")

	rows, err := ReadActivityCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, rows[0].Description)
}
