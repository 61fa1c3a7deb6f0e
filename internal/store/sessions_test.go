package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/db"
	"github.com/erazemk/shopadmin/internal/model"
)

func newTestSessions(t *testing.T) *Sessions {
	t.Helper()
	database := db.NewTestDB(t)
	key, err := GetSessionKey(context.Background(), database)
	if err != nil {
		t.Fatalf("GetSessionKey: %v", err)
	}
	sessions, err := NewSessions(database, key)
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}
	return sessions
}

var testUser = model.User{ID: 7, Name: "Ana", Email: "ana@example.com", Role: model.RoleManager}

func TestSessionRoundTrip(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	created, err := sessions.Create(ctx, testUser, "backend-token", time.Time{}, time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected session id")
	}

	got, err := sessions.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.BackendToken != "backend-token" {
		t.Errorf("expected unsealed token, got %q", got.BackendToken)
	}
	if got.User != testUser {
		t.Errorf("expected user %+v, got %+v", testUser, got.User)
	}
	if !got.TokenExpiresAt.IsZero() {
		t.Errorf("expected no token expiry, got %v", got.TokenExpiresAt)
	}
}

func TestSessionTokenSealedAtRest(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	created, err := sessions.Create(ctx, testUser, "backend-token", time.Time{}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	var sealed []byte
	if err := sessions.db.QueryRowContext(ctx, `SELECT sealed_token FROM sessions WHERE id = ?`, created.ID).Scan(&sealed); err != nil {
		t.Fatal(err)
	}
	if string(sealed) == "backend-token" {
		t.Fatal("backend token stored in plain text")
	}
}

func TestSessionExpiryFollowsBackendToken(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	tokenExp := time.Now().Add(10 * time.Minute)
	created, err := sessions.Create(ctx, testUser, "tok", tokenExp, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if created.ExpiresAt.After(tokenExp) {
		t.Errorf("session outlives backend token: %v > %v", created.ExpiresAt, tokenExp)
	}

	if _, err := sessions.Create(ctx, testUser, "tok", time.Now().Add(-time.Minute), time.Hour); !apperr.IsCode(err, apperr.CodeUnauthorized) {
		t.Errorf("expected unauthorized for expired backend token, got %v", err)
	}
}

func TestSessionGetExpired(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	created, err := sessions.Create(ctx, testUser, "tok", time.Time{}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := sessions.Get(ctx, created.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionDelete(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	created, _ := sessions.Create(ctx, testUser, "tok", time.Time{}, time.Hour)
	if err := sessions.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := sessions.Get(ctx, created.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := sessions.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting unknown session: %v", err)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	short, _ := sessions.Create(ctx, testUser, "a", time.Time{}, time.Minute)
	long, _ := sessions.Create(ctx, testUser, "b", time.Time{}, 48*time.Hour)

	ids, err := sessions.DeleteExpired(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if len(ids) != 1 || ids[0] != short.ID {
		t.Errorf("expected [%s], got %v", short.ID, ids)
	}
	if _, err := sessions.Get(ctx, long.ID); err != nil {
		t.Errorf("long session should survive: %v", err)
	}
}

func TestSessionWrongKeyCannotUnseal(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	created, _ := sessions.Create(ctx, testUser, "tok", time.Time{}, time.Hour)

	other, err := NewSessions(sessions.db, make([]byte, 32))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Get(ctx, created.ID); err == nil {
		t.Error("expected unseal failure with a different key")
	}
}

func TestNewSessionsRejectsShortKey(t *testing.T) {
	if _, err := NewSessions(nil, []byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func TestSessionSweep(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()

	expired, _ := sessions.Create(ctx, testUser, "a", time.Time{}, time.Minute)
	if err := RevokeToken(ctx, sessions.db, "old-jti", time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	ids, err := sessions.Sweep(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(ids) != 1 || ids[0] != expired.ID {
		t.Errorf("expected [%s], got %v", expired.ID, ids)
	}
	if revoked, _ := IsTokenRevoked(ctx, sessions.db, "old-jti"); revoked {
		t.Error("expected stale revocation to be purged")
	}
}
