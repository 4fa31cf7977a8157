// Package models provides data model definitions for HomeVault Core.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Receipt represents a purchase receipt.
type Receipt struct {
	ID           UUID       `db:"id" json:"id"`
	StoreName    string     `db:"store_name" json:"store_name"`
	PurchaseDate int64      `db:"purchase_date" json:"purchase_date"`
	TotalAmount  float64    `db:"total_amount" json:"total_amount"`
	Category     string     `db:"category" json:"category,omitempty"`
	Notes        string     `db:"notes" json:"notes,omitempty"`
	SyncStatus   SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt    int64      `db:"created_at" json:"created_at"`
	UpdatedAt    int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Receipt.
func (Receipt) TableName() string {
	return "receipts"
}

// PurchaseTime returns the PurchaseDate as time.Time.
func (r *Receipt) PurchaseTime() time.Time {
	return time.Unix(r.PurchaseDate, 0)
}

// Validate checks the minimal shape required of a receipt record.
func (r *Receipt) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("receipt: missing id")
	}
	if r.StoreName == "" {
		return fmt.Errorf("receipt %s: missing store_name", r.ID)
	}
	if r.UpdatedAt <= 0 {
		return fmt.Errorf("receipt %s: missing updated_at", r.ID)
	}
	return nil
}

// DecodeReceipt parses and validates a remote receipt record.
func DecodeReceipt(raw []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("receipt: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.TotalAmount = CoerceAmount(r.TotalAmount)
	return &r, nil
}
