package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/httpx"
)

// Handler wires JSON endpoints for accounts.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes on the provided router. Mutations
// pass through the manage middleware when one is given.
func (h *Handler) MountRoutes(r chi.Router, manage ...func(http.Handler) http.Handler) {
	r.Get("/accounts", h.listAccounts)
	r.With(manage...).Post("/accounts", h.createAccount)
	r.Get("/accounts/{id}", h.getAccount)
	r.Get("/accounts/{id}/transactions", h.listTransactions)
}

type createAccountRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
}

type accountResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{ID: a.ID, Code: a.Code, Name: a.Name, Currency: a.Currency}
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.CreateAccount(r.Context(), CreateAccountInput{
		Code:     req.Code,
		Name:     req.Name,
		Currency: req.Currency,
	})
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	ExternalID  string `json:"external_id"`
	OccurredAt  string `json:"occurred_at"`
	Type        string `json:"type"`
	Gross       int64  `json:"gross_minor"`
	Fee         int64  `json:"fee_minor"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	month, _ := strconv.Atoi(q.Get("month"))
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	txns, pagination, err := h.service.ListTransactions(r.Context(), accountID, year, month, page, perPage)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionResponse{
			ID:          t.ID,
			ExternalID:  t.ExternalID,
			OccurredAt:  t.OccurredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Type:        string(t.Type),
			Gross:       t.Gross,
			Fee:         t.Fee,
			Currency:    t.Currency,
			Description: t.Description,
			Source:      t.Source,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"page":         pagination.Page,
		"per_page":     pagination.PerPage,
		"total":        pagination.Total,
		"total_pages":  pagination.TotalPages,
	})
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}
