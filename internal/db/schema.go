// Package db provides database schema migration management.
package db

import (
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
)

// migration is a single versioned schema change.
type migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered schema history. Entries are append-only;
// never edit an applied migration.
var migrations = []migration{
	{
		Version:     1,
		Description: "entity tables",
		SQL: `
		CREATE TABLE IF NOT EXISTS receipts (
			id TEXT PRIMARY KEY,
			store_name TEXT NOT NULL,
			purchase_date INTEGER NOT NULL DEFAULT 0,
			total_amount REAL NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			receipt_id TEXT REFERENCES receipts(id),
			name TEXT NOT NULL,
			brand TEXT NOT NULL DEFAULT '',
			purchase_date INTEGER NOT NULL DEFAULT 0,
			warranty_duration_months INTEGER NOT NULL DEFAULT 0,
			warranty_expiry INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_devices_receipt ON devices(receipt_id);

		CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL REFERENCES devices(id),
			remind_at INTEGER NOT NULL DEFAULT 0,
			message TEXT NOT NULL DEFAULT '',
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reminders_device ON reminders(device_id);

		CREATE TABLE IF NOT EXISTS household_bills (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			bill_type TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL DEFAULT 0,
			due_date INTEGER NOT NULL DEFAULT 0,
			paid INTEGER NOT NULL DEFAULT 0,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			billing_cycle TEXT NOT NULL DEFAULT 'monthly',
			next_renewal INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			currency TEXT NOT NULL DEFAULT '',
			locale TEXT NOT NULL DEFAULT '',
			notifications_enabled INTEGER NOT NULL DEFAULT 1,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL DEFAULT '#3B82F6',
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS budgets (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			period_start INTEGER NOT NULL DEFAULT 0,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS recurring_bills (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			interval_months INTEGER NOT NULL DEFAULT 1,
			next_due INTEGER NOT NULL DEFAULT 0,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	},
	{
		Version:     2,
		Description: "sync queue",
		SQL: `
		CREATE TABLE IF NOT EXISTS sync_queue (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			payload TEXT,
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sync_queue_entity ON sync_queue(entity_id);`,
	},
}

// Migrate brings the schema up to the current version.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL,
		description TEXT NOT NULL
	);`); err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to create schema_migrations", err)
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to read schema version", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
	}
	return nil
}

// apply runs a single migration inside a transaction.
func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to begin migration", err)
	}

	if _, err := tx.Exec(m.SQL); err != nil {
		tx.Rollback()
		return apperrors.Wrap(apperrors.ErrMigration,
			fmt.Sprintf("migration %d (%s) failed", m.Version, m.Description), err)
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
		m.Version, time.Now().Unix(), m.Description,
	); err != nil {
		tx.Rollback()
		return apperrors.Wrap(apperrors.ErrMigration, "failed to record migration", err)
	}

	return tx.Commit()
}
