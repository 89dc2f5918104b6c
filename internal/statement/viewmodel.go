package statement

import (
	"github.com/wongivan852/integrated-business-platform-sub001/internal/money"
)

// View is the statement rendered for humans and API consumers: monetary
// fields as major-unit decimals, plus a symbol-formatted display string.
// Stored values stay integer minor units; only the edges format.
type View struct {
	AccountID        int64  `json:"account_id"`
	Year             int    `json:"year"`
	Month            int    `json:"month"`
	Currency         string `json:"currency"`
	OpeningBalance   string `json:"opening_balance"`
	GrossActivity    string `json:"gross_activity"`
	Fees             string `json:"fees"`
	NetActivity      string `json:"net_activity"`
	Payouts          string `json:"payouts"`
	ClosingBalance   string `json:"closing_balance"`
	ClosingDisplay   string `json:"closing_display"`
	TransactionCount int    `json:"transaction_count"`
	ReconStatus      string `json:"reconciliation_status"`
	Discrepancy      string `json:"discrepancy,omitempty"`
	Stale            bool   `json:"stale,omitempty"`
	GeneratedAt      string `json:"generated_at"`
}

// NewView builds the presentation record for one statement.
func NewView(st Statement) View {
	v := View{
		AccountID:        st.AccountID,
		Year:             st.Year,
		Month:            st.Month,
		Currency:         st.Currency,
		OpeningBalance:   money.Major(st.Opening),
		GrossActivity:    money.Major(st.Gross),
		Fees:             money.Major(st.Fees),
		NetActivity:      money.Major(st.Net),
		Payouts:          money.Major(st.Payouts),
		ClosingBalance:   money.Major(st.Closing),
		ClosingDisplay:   money.Format(st.Closing, st.Currency),
		TransactionCount: st.TxnCount,
		ReconStatus:      string(st.ReconStatus),
		Stale:            st.Stale,
		GeneratedAt:      st.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if st.Discrepancy != 0 {
		v.Discrepancy = money.Major(st.Discrepancy)
	}
	return v
}
