package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Service exposes account operations to handlers and the importer.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service instance.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateAccount registers a new billing account.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	account, err := s.repo.CreateAccount(ctx, in)
	if err != nil {
		return Account{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorFromContext(ctx),
			Action:   "account.create",
			Entity:   "account",
			EntityID: strconv.FormatInt(account.ID, 10),
			Meta:     map[string]any{"code": account.Code, "currency": account.Currency},
		})
	}
	return account, nil
}

// GetAccount returns one account by id.
func (s *Service) GetAccount(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// GetAccountByCode returns one account by its unique code.
func (s *Service) GetAccountByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetAccountByCode(ctx, code)
}

// ListAccounts returns all accounts ordered by code.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// ListTransactions pages through an account's ledger entries. A (year,
// month) pair narrows the listing to that calendar month in UTC; zero
// values list everything.
func (s *Service) ListTransactions(ctx context.Context, accountID int64, year, month, page, perPage int) ([]Transaction, shared.Pagination, error) {
	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
	if year > 0 && month >= 1 && month <= 12 {
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	}

	total, err := s.repo.CountTransactions(ctx, accountID, from, to)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	txns, err := s.repo.ListTransactions(ctx, accountID, from, to, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return txns, p, nil
}
