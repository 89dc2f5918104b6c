package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Header aliases seen across the vendor's activity and payout exports.
// Column order varies between exports, so rows are mapped by header name.
var (
	activityAliases = map[string][]string{
		"external_id": {"id", "transaction_id", "balance_transaction_id", "txn_id"},
		"timestamp":   {"created", "created_utc", "available_on", "timestamp", "date"},
		"gross":       {"amount", "gross", "gross_amount"},
		"fee":         {"fee", "fees", "fee_amount"},
		"currency":    {"currency", "currency_code"},
		"category":    {"type", "category", "reporting_category"},
		"description": {"description", "memo"},
	}
	payoutAliases = map[string][]string{
		"external_id": {"id", "payout_id", "transfer_id"},
		"timestamp":   {"arrival_date", "created", "date", "timestamp"},
		"gross":       {"amount", "gross", "net"},
		"fee":         {"fee", "fees", "fee_amount"},
		"currency":    {"currency", "currency_code"},
		"category":    {"type", "category"},
		"description": {"description", "statement_descriptor", "memo"},
	}
)

// ReadActivityCSV parses a charges/refunds export into raw rows.
func ReadActivityCSV(r io.Reader) ([]RawRow, error) {
	return readCSV(r, activityAliases, "")
}

// ReadPayoutCSV parses a bank-transfer export into raw rows. Payout exports
// often omit the category column; it defaults to "payout".
func ReadPayoutCSV(r io.Reader) ([]RawRow, error) {
	return readCSV(r, payoutAliases, "payout")
}

// ReadCSV selects the reader for the batch kind.
func ReadCSV(r io.Reader, kind BatchKind) ([]RawRow, error) {
	if kind == KindPayout {
		return ReadPayoutCSV(r)
	}
	return ReadActivityCSV(r)
}

func readCSV(r io.Reader, aliases map[string][]string, defaultCategory string) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}
	index := mapHeader(header, aliases)
	if _, ok := index["external_id"]; !ok {
		return nil, fmt.Errorf("importer: no external id column in header %v", header)
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: read record: %w", err)
		}
		row := RawRow{
			ExternalID:  field(record, index, "external_id"),
			Timestamp:   field(record, index, "timestamp"),
			Gross:       field(record, index, "gross"),
			Fee:         field(record, index, "fee"),
			Currency:    field(record, index, "currency"),
			Category:    field(record, index, "category"),
			Description: field(record, index, "description"),
		}
		if row.Category == "" {
			row.Category = defaultCategory
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func mapHeader(header []string, aliases map[string][]string) map[string]int {
	index := make(map[string]int, len(aliases))
	for i, col := range header {
		name := normalizeHeader(col)
		for logical, names := range aliases {
			if _, taken := index[logical]; taken {
				continue
			}
			for _, alias := range names {
				if name == alias {
					index[logical] = i
					break
				}
			}
		}
	}
	return index
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	return s
}

func field(record []string, index map[string]int, key string) string {
	i, ok := index[key]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
