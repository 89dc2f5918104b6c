package reconcile

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/httpx"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Handler exposes the validation endpoint. The external summary arrives
// either inline as JSON decimal strings or as a one-row CSV upload.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers validation routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/statements/validate", h.validate)
}

type validateRequest struct {
	AccountID int64      `json:"account_id" validate:"required"`
	Year      int        `json:"year" validate:"required,min=2000,max=2200"`
	Month     int        `json:"month" validate:"required,min=1,max=12"`
	Summary   RawSummary `json:"summary"`
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	actorID, _ := shared.ActorFromRequest(r)

	var (
		req validateRequest
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = h.decodeMultipart(r)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	} else {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	summary, err := req.Summary.Parse()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Validate(r.Context(), req.AccountID, req.Year, req.Month, summary, actorID)
	if err != nil {
		h.logger.Error("validate statement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) decodeMultipart(r *http.Request) (validateRequest, error) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return validateRequest{}, err
	}
	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil {
		return validateRequest{}, err
	}
	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		return validateRequest{}, err
	}
	month, err := strconv.Atoi(r.FormValue("month"))
	if err != nil {
		return validateRequest{}, err
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return validateRequest{}, err
	}
	defer func() { _ = file.Close() }()

	raw, err := ReadSummaryCSV(file)
	if err != nil {
		return validateRequest{}, err
	}
	return validateRequest{AccountID: accountID, Year: year, Month: month, Summary: raw}, nil
}
