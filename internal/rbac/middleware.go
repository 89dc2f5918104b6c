package rbac

import (
	"log/slog"
	"net/http"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/httpx"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
)

// Middleware guards routes behind a minimum role for one app.
type Middleware struct {
	logger  *slog.Logger
	service *Service
}

// NewMiddleware constructs a Middleware instance.
func NewMiddleware(logger *slog.Logger, service *Service) *Middleware {
	return &Middleware{logger: logger, service: service}
}

// Require rejects requests whose subject lacks min within appCode. The
// subject comes from the identity header set by the SSO proxy; a missing
// header is a 401, an insufficient role a 403.
func (m *Middleware) Require(appCode string, min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, ok := shared.ActorFromRequest(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity header")
				return
			}
			allowed, err := m.service.Allowed(r.Context(), actorID, appCode, min)
			if err != nil {
				m.logger.Error("resolve role", slog.String("app", appCode), slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role for "+appCode)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actorID)))
		})
	}
}
