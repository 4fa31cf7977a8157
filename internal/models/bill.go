// Package models provides data model definitions for HomeVault Core.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// HouseholdBill represents a one-off utility or household bill.
type HouseholdBill struct {
	ID         UUID       `db:"id" json:"id"`
	Provider   string     `db:"provider" json:"provider"`
	BillType   string     `db:"bill_type" json:"bill_type,omitempty"`
	Amount     float64    `db:"amount" json:"amount"`
	DueDate    int64      `db:"due_date" json:"due_date"`
	Paid       bool       `db:"paid" json:"paid"`
	SyncStatus SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt  int64      `db:"created_at" json:"created_at"`
	UpdatedAt  int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for HouseholdBill.
func (HouseholdBill) TableName() string {
	return "household_bills"
}

// DueTime returns the DueDate as time.Time.
func (b *HouseholdBill) DueTime() time.Time {
	return time.Unix(b.DueDate, 0)
}

// Validate checks the minimal shape required of a bill record.
func (b *HouseholdBill) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("household bill: missing id")
	}
	if b.Provider == "" {
		return fmt.Errorf("household bill %s: missing provider", b.ID)
	}
	if b.UpdatedAt <= 0 {
		return fmt.Errorf("household bill %s: missing updated_at", b.ID)
	}
	return nil
}

// DecodeHouseholdBill parses and validates a remote bill record.
func DecodeHouseholdBill(raw []byte) (*HouseholdBill, error) {
	var b HouseholdBill
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("household bill: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.Amount = CoerceAmount(b.Amount)
	return &b, nil
}

// RecurringBill is a bill template that repeats on a fixed interval.
// Recurring bills are local-only; they never appear in pull snapshots
// but their mutations still flow through the sync queue.
type RecurringBill struct {
	ID             UUID       `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Amount         float64    `db:"amount" json:"amount"`
	IntervalMonths int        `db:"interval_months" json:"interval_months"`
	NextDue        int64      `db:"next_due" json:"next_due"`
	SyncStatus     SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt      int64      `db:"created_at" json:"created_at"`
	UpdatedAt      int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for RecurringBill.
func (RecurringBill) TableName() string {
	return "recurring_bills"
}
