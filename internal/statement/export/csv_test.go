package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
)

func sampleView() statement.View {
	return statement.NewView(statement.Statement{
		AccountID:   1,
		Year:        2025,
		Month:       7,
		Opening:     36738,
		Gross:       1467441,
		Fees:        79946,
		Net:         1387495,
		Payouts:     835657,
		Closing:     588576,
		Currency:    "HKD",
		TxnCount:    42,
		ReconStatus: statement.ReconMatched,
		GeneratedAt: time.Date(2025, 8, 1, 2, 0, 0, 0, time.UTC),
	})
}

func TestWriteStatementCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatementCSV(&buf, sampleView()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "Opening Balance", records[0][4])
	row := records[1]
	require.Equal(t, "1", row[0])
	require.Equal(t, "2025", row[1])
	require.Equal(t, "7", row[2])
	require.Equal(t, "HKD", row[3])
	require.Equal(t, "367.38", row[4])
	require.Equal(t, "14674.41", row[5])
	require.Equal(t, "799.46", row[6])
	require.Equal(t, "13874.95", row[7])
	require.Equal(t, "8356.57", row[8])
	require.Equal(t, "5885.76", row[9])
	require.Equal(t, "42", row[10])
	require.Equal(t, "MATCHED", row[11])
}

func TestWriteStatementsCSVMultipleRows(t *testing.T) {
	first := sampleView()
	second := sampleView()
	second.Month = 8

	var buf bytes.Buffer
	require.NoError(t, WriteStatementsCSV(&buf, []statement.View{first, second}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "8", records[2][2])
}
