// Package models provides data model definitions for HomeVault Core.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DeviceStatus is the warranty lifecycle state of a device.
type DeviceStatus string

const (
	DeviceStatusActive    DeviceStatus = "active"
	DeviceStatusExpired   DeviceStatus = "expired"
	DeviceStatusInService DeviceStatus = "in_service"
)

// Device represents a purchased appliance or gadget, optionally linked
// to the receipt it was bought on.
type Device struct {
	ID                     UUID         `db:"id" json:"id"`
	ReceiptID              UUID         `db:"receipt_id" json:"receipt_id,omitempty"`
	Name                   string       `db:"name" json:"name"`
	Brand                  string       `db:"brand" json:"brand,omitempty"`
	PurchaseDate           int64        `db:"purchase_date" json:"purchase_date"`
	WarrantyDurationMonths int          `db:"warranty_duration_months" json:"warranty_duration_months"`
	WarrantyExpiry         int64        `db:"warranty_expiry" json:"warranty_expiry"`
	Status                 DeviceStatus `db:"status" json:"status"`
	SyncStatus             SyncStatus   `db:"sync_status" json:"sync_status"`
	CreatedAt              int64        `db:"created_at" json:"created_at"`
	UpdatedAt              int64        `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Device.
func (Device) TableName() string {
	return "devices"
}

// WarrantyExpiryTime returns the WarrantyExpiry as time.Time.
func (d *Device) WarrantyExpiryTime() time.Time {
	return time.Unix(d.WarrantyExpiry, 0)
}

// Normalize derives warranty fields before a write.
//
// WarrantyExpiry is computed from PurchaseDate + WarrantyDurationMonths
// unless a value was supplied explicitly. Status is recomputed from the
// expiry against now, except that in_service is a terminal override
// that freezes automatic recomputation.
func (d *Device) Normalize(now time.Time) {
	if d.WarrantyExpiry == 0 && d.PurchaseDate > 0 && d.WarrantyDurationMonths > 0 {
		d.WarrantyExpiry = time.Unix(d.PurchaseDate, 0).UTC().
			AddDate(0, d.WarrantyDurationMonths, 0).Unix()
	}

	if d.Status == DeviceStatusInService {
		return
	}

	if d.WarrantyExpiry > 0 && !now.Before(time.Unix(d.WarrantyExpiry, 0)) {
		d.Status = DeviceStatusExpired
	} else {
		d.Status = DeviceStatusActive
	}
}

// Validate checks the minimal shape required of a device record.
func (d *Device) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("device: missing id")
	}
	if d.Name == "" {
		return fmt.Errorf("device %s: missing name", d.ID)
	}
	if d.UpdatedAt <= 0 {
		return fmt.Errorf("device %s: missing updated_at", d.ID)
	}
	return nil
}

// DecodeDevice parses and validates a remote device record.
func DecodeDevice(raw []byte) (*Device, error) {
	var d Device
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Reminder is a scheduled warranty or service reminder owned by a
// device. Reminders are cascade-deleted with their device.
type Reminder struct {
	ID         UUID       `db:"id" json:"id"`
	DeviceID   UUID       `db:"device_id" json:"device_id"`
	RemindAt   int64      `db:"remind_at" json:"remind_at"`
	Message    string     `db:"message" json:"message,omitempty"`
	SyncStatus SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt  int64      `db:"created_at" json:"created_at"`
	UpdatedAt  int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Reminder.
func (Reminder) TableName() string {
	return "reminders"
}

// Validate checks the minimal shape required of a reminder record.
func (r *Reminder) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("reminder: missing id")
	}
	if r.DeviceID == "" {
		return fmt.Errorf("reminder %s: missing device_id", r.ID)
	}
	if r.UpdatedAt <= 0 {
		return fmt.Errorf("reminder %s: missing updated_at", r.ID)
	}
	return nil
}

// DecodeReminder parses and validates a remote reminder record.
func DecodeReminder(raw []byte) (*Reminder, error) {
	var r Reminder
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("reminder: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
