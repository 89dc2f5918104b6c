package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Summary CSV column aliases. Vendor balance reports name these columns
// inconsistently between export versions, so rows are mapped by header.
var summaryAliases = map[string]string{
	"opening_balance":  "opening_balance",
	"starting_balance": "opening_balance",
	"opening":          "opening_balance",
	"gross_activity":   "gross_activity",
	"gross":            "gross_activity",
	"activity_gross":   "gross_activity",
	"charges_gross":    "gross_activity",
	"fees":             "fees",
	"fee":              "fees",
	"total_fees":       "fees",
	"payouts":          "payouts",
	"payout":           "payouts",
	"total_payouts":    "payouts",
	"payouts_gross":    "payouts",
	"closing_balance":  "closing_balance",
	"ending_balance":   "closing_balance",
	"closing":          "closing_balance",
}

// ReadSummaryCSV parses a one-row vendor summary export.
func ReadSummaryCSV(r io.Reader) (RawSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return RawSummary{}, fmt.Errorf("reconcile: read header: %w", err)
	}
	record, err := reader.Read()
	if err != nil {
		return RawSummary{}, fmt.Errorf("reconcile: read summary row: %w", err)
	}

	values := make(map[string]string, 5)
	for i, col := range header {
		name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(col), " ", "_"))
		logical, ok := summaryAliases[name]
		if !ok || i >= len(record) {
			continue
		}
		if _, taken := values[logical]; !taken {
			values[logical] = strings.TrimSpace(record[i])
		}
	}

	for _, key := range []string{FieldOpening, FieldGross, FieldFees, FieldPayouts, FieldClosing} {
		if values[key] == "" {
			return RawSummary{}, fmt.Errorf("reconcile: summary column %s missing", key)
		}
	}
	return RawSummary{
		Opening: values[FieldOpening],
		Gross:   values[FieldGross],
		Fees:    values[FieldFees],
		Payouts: values[FieldPayouts],
		Closing: values[FieldClosing],
	}, nil
}
