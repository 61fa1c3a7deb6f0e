package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/auth"
	"github.com/erazemk/shopadmin/internal/backend"
	"github.com/erazemk/shopadmin/internal/metrics"
	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/store"
	"github.com/erazemk/shopadmin/internal/workspace"
)

type contextKey string

const principalKey contextKey = "principal"

// tokenCookie carries the console token for browser clients.
const tokenCookie = "token"

// Principal is the authenticated operator of a request: the console token
// claims, the persisted session and a backend client bound to it.
type Principal struct {
	Claims    *auth.Claims
	Session   *store.Session
	Backend   *backend.Client
	Workspace *workspace.Workspace
}

// User returns the operator's backend profile.
func (p *Principal) User() model.User {
	return p.Session.User
}

// AuthMiddleware validates the console token, checks it has not been
// revoked and loads the session it names.
func AuthMiddleware(secret string, db *sql.DB, sessions *store.Sessions, client *backend.Client, workspaces *workspace.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				jsonError(w, apperr.CodeUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := auth.ValidateToken(secret, tokenStr)
			if err != nil {
				jsonError(w, apperr.CodeUnauthorized, "invalid token")
				return
			}

			revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if revoked {
				jsonError(w, apperr.CodeUnauthorized, "token has been revoked")
				return
			}

			sess, err := sessions.Get(r.Context(), claims.SessionID)
			if err != nil {
				if apperr.IsCode(err, apperr.CodeUnauthorized) {
					workspaces.Drop(claims.SessionID)
				}
				writeError(w, r, err)
				return
			}

			p := &Principal{
				Claims:    claims,
				Session:   sess,
				Backend:   client.WithSession(backend.Session{Token: sess.BackendToken, User: sess.User}),
				Workspace: workspaces.Get(sess.ID),
			}
			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header, falling back to the cookie.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireRole returns middleware that checks if the user has at least the given role.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				jsonError(w, apperr.CodeUnauthorized, "not authenticated")
				return
			}
			if !model.RoleAtLeast(p.Claims.Role, minimum) {
				jsonError(w, apperr.CodeForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal retrieves the authenticated operator from the context.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs requests and records them by route pattern.
func LoggingMiddleware(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			m.ObserveRequest(r.Pattern, rec.status, elapsed)
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", rec.status,
				"duration", elapsed.Round(time.Millisecond),
			)
		})
	}
}
