// Package models provides data model definitions for HomeVault Core.
package models

import (
	"encoding/json"
	"fmt"
)

// Settings holds per-user preferences. At most one row exists per user.
type Settings struct {
	ID                   UUID       `db:"id" json:"id"`
	UserID               string     `db:"user_id" json:"user_id"`
	Currency             string     `db:"currency" json:"currency,omitempty"`
	Locale               string     `db:"locale" json:"locale,omitempty"`
	NotificationsEnabled bool       `db:"notifications_enabled" json:"notifications_enabled"`
	SyncStatus           SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt            int64      `db:"created_at" json:"created_at"`
	UpdatedAt            int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Settings.
func (Settings) TableName() string {
	return "settings"
}

// Validate checks the minimal shape required of a settings record.
func (s *Settings) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("settings: missing id")
	}
	if s.UserID == "" {
		return fmt.Errorf("settings %s: missing user_id", s.ID)
	}
	if s.UpdatedAt <= 0 {
		return fmt.Errorf("settings %s: missing updated_at", s.ID)
	}
	return nil
}

// DecodeSettings parses and validates a remote settings record.
func DecodeSettings(raw []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
