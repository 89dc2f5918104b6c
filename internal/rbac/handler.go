package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/httpx"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Handler exposes grant administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers grant routes on the provided router. Administration
// endpoints pass through the admin middleware when one is given; /me only
// needs an identified caller.
func (h *Handler) MountRoutes(r chi.Router, admin ...func(http.Handler) http.Handler) {
	r.Get("/me", h.mine)
	r.With(admin...).Post("/", h.assign)
	r.With(admin...).Get("/users/{userID}", h.forUser)
}

type assignRequest struct {
	UserID  int64  `json:"user_id" validate:"required"`
	AppCode string `json:"app_code" validate:"required"`
	Role    string `json:"role" validate:"required"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Assign(r.Context(), req.UserID, req.AppCode, role); err != nil {
		h.logger.Error("assign role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Grant{UserID: req.UserID, AppCode: req.AppCode, Role: role})
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	actorID := shared.ActorFromContext(r.Context())
	if actorID == 0 {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity header")
		return
	}
	grants, err := h.service.GrantsFor(r.Context(), actorID)
	if err != nil {
		h.logger.Error("list grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants)
}

func (h *Handler) forUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	grants, err := h.service.GrantsFor(r.Context(), userID)
	if err != nil {
		h.logger.Error("list grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants)
}
