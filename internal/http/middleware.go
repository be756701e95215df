package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/clan-roster/internal/permission"
)

// RequireActor resolves the acting user from the identity headers set by the
// authenticating reverse proxy: X-User-ID, X-User-Role and X-Clan-ID.
// Requests without an identity are rejected before reaching a handler.
func RequireActor(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingUserID)
				return
			}

			role := permission.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get("X-User-Role"))))
			if role == "" {
				role = permission.RoleMember
			}
			if !role.Valid() {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errInvalidRole)
				return
			}

			actor := permission.Actor{
				UserID: userID,
				Role:   role,
				ClanID: strings.TrimSpace(r.Header.Get("X-Clan-ID")),
			}

			ctx := ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger to the context and records
// request timing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
