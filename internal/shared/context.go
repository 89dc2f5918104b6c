package shared

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type actorKey struct{}

// ActorHeader carries the authenticated user id set by the SSO proxy.
// Authentication itself happens upstream; this service only consumes it.
const ActorHeader = "X-User-ID"

// ContextWithActor stores the acting user id in the context.
func ContextWithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user id, zero when absent.
func ActorFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(actorKey{}).(int64); ok {
		return v
	}
	return 0
}

// ActorFromRequest parses the SSO identity header.
func ActorFromRequest(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get(ActorHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
