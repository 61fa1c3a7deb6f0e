package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/auth"
	"github.com/erazemk/shopadmin/internal/backend"
	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/store"
	"github.com/erazemk/shopadmin/internal/workspace"
)

// AuthHandler handles console login and logout.
type AuthHandler struct {
	DB         *sql.DB
	JWTSecret  string
	Sessions   *store.Sessions
	Backend    *backend.Client
	Workspaces *workspace.Manager
	SessionTTL time.Duration
	// SecureCookie marks the token cookie Secure.
	SecureCookie bool
}

type loginResponse struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Login handles POST /api/auth/login. The credentials are checked by the
// backend; the console keeps the backend token in a sealed session and
// hands out its own token naming that session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req backend.Credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	bs, err := h.Backend.Login(r.Context(), req)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeUnauthorized) || apperr.IsCode(err, apperr.CodeNotFound) {
			slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
			jsonError(w, apperr.CodeUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, err)
		return
	}

	tokenExp, _ := auth.BackendTokenExpiry(bs.Token)
	sess, err := h.Sessions.Create(r.Context(), bs.User, bs.Token, tokenExp, h.SessionTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, _, err := auth.GenerateToken(h.JWTSecret, sess.ID, bs.User.ID, bs.User.Name, bs.User.Role, time.Until(sess.ExpiresAt))
	if err != nil {
		_ = h.Sessions.Delete(r.Context(), sess.ID)
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("user logged in", "user", bs.User.Name, "role", bs.User.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: bs.User, ExpiresAt: sess.ExpiresAt})
}

// Logout handles POST /api/auth/logout. It revokes the console token,
// deletes the session and discards the operator's page state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		jsonError(w, apperr.CodeUnauthorized, "not authenticated")
		return
	}

	expiresAt := time.Now().Add(auth.DefaultTTL)
	if p.Claims.ExpiresAt != nil {
		expiresAt = p.Claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, p.Claims.ID, expiresAt); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Sessions.Delete(r.Context(), p.Session.ID); err != nil {
		writeError(w, r, err)
		return
	}
	h.Workspaces.Drop(p.Session.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("user logged out", "user", p.User().Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type meResponse struct {
	User           model.User `json:"user"`
	ExpiresAt      time.Time  `json:"expires_at"`
	TokenExpiresAt *time.Time `json:"backend_token_expires_at,omitempty"`
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	resp := meResponse{User: p.User(), ExpiresAt: p.Session.ExpiresAt}
	if !p.Session.TokenExpiresAt.IsZero() {
		t := p.Session.TokenExpiresAt
		resp.TokenExpiresAt = &t
	}
	jsonResponse(w, http.StatusOK, resp)
}
