// Package http exposes the statement API endpoints.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/money"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/httpx"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement/export"
)

// Handler wires statement generation and read endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *statement.Service
	validator *validator.Validate
	views     singleflight.Group
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *statement.Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers statement routes on the provided router. Mutations
// pass through the manage middleware when one is given.
func (h *Handler) MountRoutes(r chi.Router, manage ...func(http.Handler) http.Handler) {
	r.With(manage...).Post("/statements/generate", h.generate)
	r.Get("/statements", h.list)
	r.Get("/accounts/{id}/statements/{year}/{month}", h.get)
	r.Get("/accounts/{id}/statements/{year}/{month}/csv", h.getCSV)
}

type generateRequest struct {
	AccountID int64  `json:"account_id" validate:"required"`
	Year      int    `json:"year" validate:"required,min=2000,max=2200"`
	Month     int    `json:"month" validate:"required,min=1,max=12"`
	// Major-unit decimal string; only used for the first month of an
	// account's history or an explicit correction.
	OpeningBalance string `json:"opening_balance,omitempty"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var override *int64
	if req.OpeningBalance != "" {
		minor, err := money.ParseMinorUnits(req.OpeningBalance)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid opening_balance")
			return
		}
		override = &minor
	}

	actorID, _ := shared.ActorFromRequest(r)
	st, err := h.service.Generate(r.Context(), statement.GenerateInput{
		AccountID:       req.AccountID,
		Year:            req.Year,
		Month:           req.Month,
		OpeningOverride: override,
		ActorID:         actorID,
	})
	if err != nil {
		switch err {
		case statement.ErrMissingOpeningBalance:
			httpx.Problem(w, http.StatusPreconditionFailed, "Missing Opening Balance", err.Error())
		case statement.ErrCascadeConflict:
			httpx.Problem(w, http.StatusConflict, "Generation Busy", err.Error())
		default:
			h.logger.Error("generate statement", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, statement.NewView(st))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.URL.Query().Get("account"), 10, 64)
	if err != nil || accountID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "account query parameter required")
		return
	}
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	statements, err := h.service.List(r.Context(), accountID, year)
	if err != nil {
		h.logger.Error("list statements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]statement.View, 0, len(statements))
	for _, st := range statements {
		views = append(views, statement.NewView(st))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.loadView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) getCSV(w http.ResponseWriter, r *http.Request) {
	view, err := h.loadView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="statement-%d-%04d-%02d.csv"`, view.AccountID, view.Year, view.Month))
	if err := export.WriteStatementCSV(w, view); err != nil {
		h.logger.Error("write statement csv", slog.Any("error", err))
	}
}

// loadView fetches one statement, deduplicating concurrent identical reads.
func (h *Handler) loadView(r *http.Request) (statement.View, error) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return statement.View{}, httpx.ErrValidation
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return statement.View{}, httpx.ErrValidation
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return statement.View{}, httpx.ErrValidation
	}

	key := fmt.Sprintf("%d:%04d-%02d", accountID, year, month)
	v, err, _ := h.views.Do(key, func() (interface{}, error) {
		st, err := h.service.Get(r.Context(), accountID, year, month)
		if err != nil {
			return nil, err
		}
		return statement.NewView(st), nil
	})
	if err != nil {
		return statement.View{}, err
	}
	return v.(statement.View), nil
}
