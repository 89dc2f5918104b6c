package importer

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/httpx"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Handler exposes the batch import endpoint. Batches arrive either as a
// JSON body of raw rows or as a multipart CSV upload.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers import routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/imports", h.importBatch)
}

type importJSONRequest struct {
	AccountID int64    `json:"account_id" validate:"required"`
	Kind      string   `json:"kind" validate:"required,oneof=activity payout"`
	Source    string   `json:"source" validate:"required"`
	Replace   bool     `json:"replace"`
	Rows      []RawRow `json:"rows" validate:"required,min=1"`
}

func (h *Handler) importBatch(w http.ResponseWriter, r *http.Request) {
	actorID, _ := shared.ActorFromRequest(r)

	req, err := h.decodeRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	req.ActorID = actorID

	result, err := h.service.ImportBatch(r.Context(), req)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"title":  "Import Failed",
				"status": http.StatusUnprocessableEntity,
				"errors": parseErr.Rows,
			})
			return
		}
		h.logger.Error("import batch", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) decodeRequest(r *http.Request) (ImportRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return h.decodeMultipart(r)
	}

	var body importJSONRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return ImportRequest{}, errors.New("invalid JSON body")
	}
	if err := h.validator.Struct(body); err != nil {
		return ImportRequest{}, err
	}
	return ImportRequest{
		AccountID: body.AccountID,
		Kind:      BatchKind(body.Kind),
		Source:    body.Source,
		Replace:   body.Replace,
		Rows:      body.Rows,
	}, nil
}

func (h *Handler) decodeMultipart(r *http.Request) (ImportRequest, error) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		return ImportRequest{}, errors.New("invalid multipart form")
	}
	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil {
		return ImportRequest{}, errors.New("invalid account_id")
	}
	kind := BatchKind(r.FormValue("kind"))

	file, header, err := r.FormFile("file")
	if err != nil {
		return ImportRequest{}, errors.New("file upload required")
	}
	defer func() { _ = file.Close() }()

	rows, err := ReadCSV(file, kind)
	if err != nil {
		return ImportRequest{}, err
	}

	source := r.FormValue("source")
	if source == "" {
		source = header.Filename
	}
	return ImportRequest{
		AccountID: accountID,
		Kind:      kind,
		Source:    source,
		Replace:   r.FormValue("replace") == "true",
		Rows:      rows,
	}, nil
}
