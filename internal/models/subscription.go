// Package models provides data model definitions for HomeVault Core.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Subscription represents a recurring paid service.
type Subscription struct {
	ID           UUID       `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Amount       float64    `db:"amount" json:"amount"`
	BillingCycle string     `db:"billing_cycle" json:"billing_cycle"` // monthly, yearly
	NextRenewal  int64      `db:"next_renewal" json:"next_renewal"`
	Active       bool       `db:"active" json:"active"`
	SyncStatus   SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt    int64      `db:"created_at" json:"created_at"`
	UpdatedAt    int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Subscription.
func (Subscription) TableName() string {
	return "subscriptions"
}

// NextRenewalTime returns the NextRenewal as time.Time.
func (s *Subscription) NextRenewalTime() time.Time {
	return time.Unix(s.NextRenewal, 0)
}

// Validate checks the minimal shape required of a subscription record.
func (s *Subscription) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("subscription: missing id")
	}
	if s.Name == "" {
		return fmt.Errorf("subscription %s: missing name", s.ID)
	}
	if s.UpdatedAt <= 0 {
		return fmt.Errorf("subscription %s: missing updated_at", s.ID)
	}
	return nil
}

// DecodeSubscription parses and validates a remote subscription record.
func DecodeSubscription(raw []byte) (*Subscription, error) {
	var s Subscription
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("subscription: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Amount = CoerceAmount(s.Amount)
	return &s, nil
}
