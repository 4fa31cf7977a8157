// Package db provides the transactional entity store.
package db

import (
	"database/sql"
	stderrors "errors"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/uuid"
)

const settingsCols = `id, user_id, currency, locale, notifications_enabled,
	sync_status, created_at, updated_at`

func scanSettings(row rowScanner) (*models.Settings, error) {
	var st models.Settings
	err := row.Scan(
		&st.ID, &st.UserID, &st.Currency, &st.Locale, &st.NotificationsEnabled,
		&st.SyncStatus, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// CreateSettings creates the settings row for a user. The user_id
// column is unique; a second create for the same user fails with
// ErrDuplicate.
func (s *Store) CreateSettings(st *models.Settings) error {
	now := s.now().Unix()
	if st.ID == "" {
		st.ID = models.UUID(uuid.New())
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	st.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO settings (`+settingsCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.UserID, st.Currency, st.Locale, st.NotificationsEnabled,
			st.SyncStatus, st.CreatedAt, st.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create settings", err)
		}
		return s.enqueue(tx, models.EntitySettings, st.ID, models.OpCreate, st)
	})
}

// GetSettings retrieves the settings row for a user.
func (s *Store) GetSettings(userID string) (*models.Settings, error) {
	st, err := scanSettings(s.db.QueryRow(
		"SELECT "+settingsCols+" FROM settings WHERE user_id = ?", userID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "settings for user "+userID+" not found", err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get settings", err)
	}
	return st, nil
}

// SettingsUpdate carries the fields of a partial settings update.
type SettingsUpdate struct {
	Currency             *string
	Locale               *string
	NotificationsEnabled *bool
}

// UpdateSettings applies a partial update and enqueues the mutation.
func (s *Store) UpdateSettings(userID string, upd SettingsUpdate) (*models.Settings, error) {
	var out *models.Settings
	err := s.withTx(func(tx *sql.Tx) error {
		st, err := scanSettings(tx.QueryRow(
			"SELECT "+settingsCols+" FROM settings WHERE user_id = ?", userID))
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperrors.Wrap(apperrors.ErrNotFound, "settings for user "+userID+" not found", err)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get settings", err)
		}

		if upd.Currency != nil {
			st.Currency = *upd.Currency
		}
		if upd.Locale != nil {
			st.Locale = *upd.Locale
		}
		if upd.NotificationsEnabled != nil {
			st.NotificationsEnabled = *upd.NotificationsEnabled
		}
		st.UpdatedAt = s.now().Unix()
		st.SyncStatus = models.SyncStatusPending

		_, err = tx.Exec(`
		UPDATE settings SET currency = ?, locale = ?, notifications_enabled = ?,
			sync_status = ?, updated_at = ?
		WHERE id = ?`,
			st.Currency, st.Locale, st.NotificationsEnabled,
			st.SyncStatus, st.UpdatedAt, st.ID)
		if err != nil {
			return wrapWriteErr("failed to update settings", err)
		}

		out = st
		return s.enqueue(tx, models.EntitySettings, st.ID, models.OpUpdate, st)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSettings creates the user's settings row if absent, otherwise
// overwrites its preference fields.
func (s *Store) SaveSettings(st *models.Settings) (*models.Settings, error) {
	_, err := s.GetSettings(st.UserID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		if err := s.CreateSettings(st); err != nil {
			return nil, err
		}
		return st, nil
	}
	if err != nil {
		return nil, err
	}
	return s.UpdateSettings(st.UserID, SettingsUpdate{
		Currency:             &st.Currency,
		Locale:               &st.Locale,
		NotificationsEnabled: &st.NotificationsEnabled,
	})
}
