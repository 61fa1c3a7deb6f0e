package db

import (
	"database/sql"
	"fmt"
)

// schema holds the console's own state: operator sessions, generated
// secrets and revoked console tokens. Catalog and order data live in the
// retail backend and are never stored here.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    user_id          INTEGER NOT NULL,
    user_json        TEXT NOT NULL,
    sealed_token     BLOB NOT NULL,
    nonce            BLOB NOT NULL,
    token_expires_at DATETIME,
    expires_at       DATETIME NOT NULL,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
