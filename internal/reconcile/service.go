package reconcile

import (
	"context"
	"fmt"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
)

// Statements is the slice of the statement module the validator needs.
type Statements interface {
	Get(ctx context.Context, accountID int64, year, month int) (statement.Statement, error)
	SetReconciliation(ctx context.Context, accountID int64, year, month int, status statement.ReconStatus, discrepancy int64) error
}

// Service runs validations.
type Service struct {
	statements Statements
	audit      *shared.AuditLogger
}

// NewService constructs a Service instance.
func NewService(statements Statements, audit *shared.AuditLogger) *Service {
	return &Service{statements: statements, audit: audit}
}

// Validate compares the stored statement against the external summary field
// by field with exact integer equality, records the outcome on the
// statement, and never corrects stored figures. Discrepancies are data for
// human review, not errors.
func (s *Service) Validate(ctx context.Context, accountID int64, year, month int, summary ExternalSummary, actorID int64) (ValidationResult, error) {
	st, err := s.statements.Get(ctx, accountID, year, month)
	if err != nil {
		return ValidationResult{}, err
	}

	result := ValidationResult{
		AccountID: accountID,
		Year:      year,
		Month:     month,
		Status:    StatusMatched,
	}

	compare := func(field string, expected, actual int64) {
		if expected == actual {
			return
		}
		result.Discrepancies = append(result.Discrepancies, Delta{
			Field:    field,
			Expected: expected,
			Actual:   actual,
			Delta:    actual - expected,
		})
	}
	compare(FieldOpening, summary.Opening, st.Opening)
	compare(FieldGross, summary.Gross, st.Gross)
	compare(FieldFees, summary.Fees, st.Fees)
	compare(FieldPayouts, summary.Payouts, st.Payouts)
	compare(FieldClosing, summary.Closing, st.Closing)

	status := statement.ReconMatched
	discrepancy := int64(0)
	if len(result.Discrepancies) > 0 {
		result.Status = StatusDiscrepant
		status = statement.ReconDiscrepant
		discrepancy = headlineDiscrepancy(result.Discrepancies)
	}

	if err := s.statements.SetReconciliation(ctx, accountID, year, month, status, discrepancy); err != nil {
		return ValidationResult{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "statement.validate",
			Entity:   "monthly_statement",
			EntityID: fmt.Sprintf("%d:%04d-%02d", accountID, year, month),
			Meta: map[string]any{
				"status":            string(result.Status),
				"discrepancy_minor": discrepancy,
			},
		})
	}
	return result, nil
}

// headlineDiscrepancy picks the single amount stored on the statement: the
// closing-balance delta when present, otherwise the largest field delta.
func headlineDiscrepancy(deltas []Delta) int64 {
	var largest int64
	for _, d := range deltas {
		if d.Field == FieldClosing {
			return d.Delta
		}
		if abs(d.Delta) > abs(largest) {
			largest = d.Delta
		}
	}
	return largest
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
