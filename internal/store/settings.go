// Package store persists the console's own state in SQLite.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	settingJWTSecret  = "jwt_secret"
	settingSessionKey = "session_key"
)

// GetJWTSecret returns the console token signing secret, generating and
// storing one on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return generatedSetting(ctx, db, settingJWTSecret, 32)
}

// GetSessionKey returns the key that seals backend tokens at rest,
// generating and storing one on first use.
func GetSessionKey(ctx context.Context, db *sql.DB) ([]byte, error) {
	encoded, err := generatedSetting(ctx, db, settingSessionKey, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(encoded)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session_key setting is corrupt")
	}
	return key, nil
}

// generatedSetting reads key, storing n random hex-encoded bytes first if it
// is absent. INSERT OR IGNORE + re-SELECT keeps concurrent startups on the
// same value.
func generatedSetting(ctx context.Context, db *sql.DB, key string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, hex.EncodeToString(buf),
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}
