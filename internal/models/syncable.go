// Package models provides data model definitions for HomeVault Core.
package models

import (
	"database/sql/driver"
	"fmt"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = ""
	case string:
		*u = UUID(v)
	case []byte:
		*u = UUID(v)
	default:
		return fmt.Errorf("cannot scan %T into UUID", value)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// SyncStatus tracks whether a record has reached the remote store.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusError   SyncStatus = "error"
)

// Operation is the mutation kind carried by a queue item.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// EntityType identifies a syncable record type.
type EntityType string

const (
	EntityReceipt       EntityType = "receipt"
	EntityDevice        EntityType = "device"
	EntityReminder      EntityType = "reminder"
	EntityHouseholdBill EntityType = "household_bill"
	EntityDocument      EntityType = "document"
	EntitySubscription  EntityType = "subscription"
	EntitySettings      EntityType = "settings"
	EntityTag           EntityType = "tag"
	EntityBudget        EntityType = "budget"
	EntityRecurringBill EntityType = "recurring_bill"
)
