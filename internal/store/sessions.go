package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = apperr.New(apperr.CodeUnauthorized, "session not found or expired")

// Session is an operator's persisted login: the backend identity and the
// backend bearer token, sealed at rest.
type Session struct {
	ID             string
	User           model.User
	BackendToken   string
	TokenExpiresAt time.Time // zero when the backend token carries no expiry
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Sessions stores sessions with the backend token sealed by
// XChaCha20-Poly1305. The session id is the additional data, so a sealed
// token cannot be moved to another row.
type Sessions struct {
	db   *sql.DB
	aead cipher.AEAD
	now  func() time.Time
}

// NewSessions returns a session store sealing tokens with key.
func NewSessions(db *sql.DB, key []byte) (*Sessions, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating session cipher: %w", err)
	}
	return &Sessions{db: db, aead: aead, now: time.Now}, nil
}

// Create persists a session for user. The session ends after ttl or when the
// backend token expires, whichever comes first.
func (s *Sessions) Create(ctx context.Context, user model.User, backendToken string, tokenExpiresAt time.Time, ttl time.Duration) (*Session, error) {
	if backendToken == "" {
		return nil, apperr.New(apperr.CodeValidation, "backend token is required")
	}

	now := dbTime(s.now())
	expires := now.Add(ttl)
	if !tokenExpiresAt.IsZero() && tokenExpiresAt.Before(expires) {
		expires = tokenExpiresAt
	}
	if !expires.After(now) {
		return nil, apperr.New(apperr.CodeUnauthorized, "backend token already expired")
	}

	sess := &Session{
		ID:           uuid.NewString(),
		User:         user,
		BackendToken: backendToken,
		ExpiresAt:    dbTime(expires),
		CreatedAt:    now,
	}
	if !tokenExpiresAt.IsZero() {
		sess.TokenExpiresAt = dbTime(tokenExpiresAt)
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encoding session user: %w", err)
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	sealed := s.aead.Seal(nil, nonce, []byte(backendToken), []byte(sess.ID))

	var tokenExp sql.NullTime
	if !sess.TokenExpiresAt.IsZero() {
		tokenExp = sql.NullTime{Time: sess.TokenExpiresAt, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, user_json, sealed_token, nonce, token_expires_at, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, user.ID, string(userJSON), sealed, nonce, tokenExp, sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// Get loads an unexpired session and unseals its backend token.
func (s *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess     Session
		userJSON string
		sealed   []byte
		nonce    []byte
		tokenExp sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_json, sealed_token, nonce, token_expires_at, expires_at, created_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &userJSON, &sealed, &nonce, &tokenExp, &sess.ExpiresAt, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if !s.now().Before(sess.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	if tokenExp.Valid {
		sess.TokenExpiresAt = tokenExp.Time
	}

	if err := json.Unmarshal([]byte(userJSON), &sess.User); err != nil {
		return nil, fmt.Errorf("decoding session user: %w", err)
	}
	token, err := s.aead.Open(nil, nonce, sealed, []byte(sess.ID))
	if err != nil {
		return nil, fmt.Errorf("unsealing backend token: %w", err)
	}
	sess.BackendToken = string(token)
	return &sess, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that ended before now and returns their
// ids so in-memory state tied to them can be dropped too.
func (s *Sessions) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	cutoff := dbTime(now)
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions WHERE expires_at <= ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, cutoff); err != nil {
		return nil, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return ids, nil
}

// Sweep deletes expired sessions and stale token revocations. It returns
// the ids of the deleted sessions.
func (s *Sessions) Sweep(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := s.DeleteExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	if _, err := PurgeRevokedTokens(ctx, s.db, now); err != nil {
		return nil, err
	}
	return ids, nil
}
