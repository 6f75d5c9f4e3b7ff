package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'soldier' CHECK (role IN ('admin', 'manager', 'soldier')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS equipment (
    id                  INTEGER PRIMARY KEY,
    serial              TEXT NOT NULL,
    product_name        TEXT NOT NULL,
    category            TEXT,
    location            TEXT,
    status              TEXT NOT NULL DEFAULT 'available'
                        CHECK (status IN ('available', 'pending_transfer', 'in_maintenance', 'retired')),
    condition           TEXT NOT NULL DEFAULT 'good'
                        CHECK (condition IN ('new', 'good', 'fair', 'poor')),
    current_holder_id   TEXT,
    current_holder_name TEXT,
    image               BLOB,
    image_mime          TEXT,
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at          DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_serial_active
    ON equipment(serial) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS tracking_history (
    id           INTEGER PRIMARY KEY,
    equipment_id INTEGER NOT NULL REFERENCES equipment(id),
    action       TEXT NOT NULL,
    holder       TEXT,
    location     TEXT,
    notes        TEXT,
    updated_by   TEXT NOT NULL,
    timestamp    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tracking_history_equipment
    ON tracking_history(equipment_id, timestamp);

CREATE TABLE IF NOT EXISTS transfer_requests (
    id               TEXT PRIMARY KEY,
    equipment_id     INTEGER NOT NULL REFERENCES equipment(id),
    equipment_serial TEXT NOT NULL,
    from_user_id     TEXT NOT NULL,
    from_user_name   TEXT NOT NULL,
    to_user_id       TEXT NOT NULL,
    to_user_name     TEXT NOT NULL,
    reason           TEXT,
    note             TEXT,
    status           TEXT NOT NULL DEFAULT 'pending'
                     CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transfer_requests_equipment
    ON transfer_requests(equipment_id, status);
CREATE INDEX IF NOT EXISTS idx_transfer_requests_recipient
    ON transfer_requests(to_user_id, status);

CREATE TABLE IF NOT EXISTS transfer_status_history (
    id              INTEGER PRIMARY KEY,
    transfer_id     TEXT NOT NULL REFERENCES transfer_requests(id),
    status          TEXT NOT NULL,
    note            TEXT,
    updated_by      TEXT NOT NULL,
    updated_by_name TEXT NOT NULL,
    timestamp       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transfer_status_history_transfer
    ON transfer_status_history(transfer_id, timestamp);

CREATE TABLE IF NOT EXISTS action_log (
    id               TEXT PRIMARY KEY,
    action_type      TEXT NOT NULL,
    equipment_id     INTEGER NOT NULL,
    equipment_serial TEXT NOT NULL,
    equipment_name   TEXT NOT NULL,
    actor_id         TEXT NOT NULL,
    actor_name       TEXT NOT NULL,
    target_id        TEXT,
    target_name      TEXT,
    note             TEXT,
    timestamp        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_action_log_equipment ON action_log(equipment_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_action_log_actor     ON action_log(actor_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_action_log_type      ON action_log(action_type, timestamp);
CREATE INDEX IF NOT EXISTS idx_action_log_time      ON action_log(timestamp);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
