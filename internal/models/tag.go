// Package models provides data model definitions for HomeVault Core.
package models

// Tag is a user-defined label applied to receipts and documents.
type Tag struct {
	ID         UUID       `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Color      string     `db:"color" json:"color,omitempty"`
	SyncStatus SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt  int64      `db:"created_at" json:"created_at"`
	UpdatedAt  int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Tag.
func (Tag) TableName() string {
	return "tags"
}

// Budget is a per-category monthly spending limit.
type Budget struct {
	ID          UUID       `db:"id" json:"id"`
	Category    string     `db:"category" json:"category"`
	Amount      float64    `db:"amount" json:"amount"`
	PeriodStart int64      `db:"period_start" json:"period_start"`
	SyncStatus  SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt   int64      `db:"created_at" json:"created_at"`
	UpdatedAt   int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Budget.
func (Budget) TableName() string {
	return "budgets"
}
