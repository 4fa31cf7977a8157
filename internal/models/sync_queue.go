// Package models provides data model definitions for HomeVault Core.
package models

import (
	"encoding/json"
	"time"
)

// SyncQueueItem represents a pending mutation awaiting push to the
// remote store. Items are created in the same transaction as the
// entity write they represent, and are never mutated afterwards except
// to bump RetryCount and LastError on failure.
type SyncQueueItem struct {
	ID         int64           `db:"id" json:"-"`
	EntityType EntityType      `db:"entity_type" json:"entity_type"`
	EntityID   UUID            `db:"entity_id" json:"entity_id"`
	Operation  Operation       `db:"operation" json:"operation"`
	Payload    json.RawMessage `db:"payload" json:"data,omitempty"`
	RetryCount int             `db:"retry_count" json:"-"`
	LastError  string          `db:"last_error" json:"-"`
	CreatedAt  int64           `db:"created_at" json:"created_at"`
}

// TableName returns the table name for SyncQueueItem.
func (SyncQueueItem) TableName() string {
	return "sync_queue"
}

// Age returns how long the item has been queued.
func (i *SyncQueueItem) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(i.CreatedAt, 0))
}
