// Package export serialises statements for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
)

var header = []string{
	"Account", "Year", "Month", "Currency",
	"Opening Balance", "Gross Activity", "Fees", "Net Activity",
	"Payouts", "Closing Balance", "Transactions", "Reconciliation",
}

// WriteStatementCSV emits a single statement as CSV.
func WriteStatementCSV(w io.Writer, v statement.View) error {
	return WriteStatementsCSV(w, []statement.View{v})
}

// WriteStatementsCSV emits a statement listing as CSV.
func WriteStatementsCSV(w io.Writer, views []statement.View) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, v := range views {
		record := []string{
			strconv.FormatInt(v.AccountID, 10),
			strconv.Itoa(v.Year),
			strconv.Itoa(v.Month),
			v.Currency,
			v.OpeningBalance,
			v.GrossActivity,
			v.Fees,
			v.NetActivity,
			v.Payouts,
			v.ClosingBalance,
			strconv.Itoa(v.TransactionCount),
			v.ReconStatus,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
