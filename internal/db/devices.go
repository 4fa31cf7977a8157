// Package db provides the transactional entity store.
package db

import (
	"database/sql"
	stderrors "errors"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/uuid"
)

const deviceCols = `id, receipt_id, name, brand, purchase_date, warranty_duration_months,
	warranty_expiry, status, sync_status, created_at, updated_at`

func scanDevice(row rowScanner) (*models.Device, error) {
	var d models.Device
	var receiptID sql.NullString
	err := row.Scan(
		&d.ID, &receiptID, &d.Name, &d.Brand, &d.PurchaseDate,
		&d.WarrantyDurationMonths, &d.WarrantyExpiry, &d.Status,
		&d.SyncStatus, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if receiptID.Valid {
		d.ReceiptID = models.UUID(receiptID.String)
	}
	return &d, nil
}

// CreateDevice creates a device, deriving warranty fields, and
// enqueues the create mutation.
func (s *Store) CreateDevice(d *models.Device) error {
	now := s.now()
	if d.ID == "" {
		d.ID = models.UUID(uuid.New())
	}
	d.CreatedAt = now.Unix()
	d.UpdatedAt = now.Unix()
	d.Normalize(now)
	d.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO devices (`+deviceCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, nullableID(d.ReceiptID), d.Name, d.Brand, d.PurchaseDate,
			d.WarrantyDurationMonths, d.WarrantyExpiry, d.Status,
			d.SyncStatus, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create device", err)
		}
		return s.enqueue(tx, models.EntityDevice, d.ID, models.OpCreate, d)
	})
}

// nullableID stores an empty UUID as NULL to keep the foreign key happy.
func nullableID(id models.UUID) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// GetDevice retrieves a device by id.
func (s *Store) GetDevice(id models.UUID) (*models.Device, error) {
	d, err := scanDevice(s.db.QueryRow(
		"SELECT "+deviceCols+" FROM devices WHERE id = ?", id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "device "+id.String()+" not found", err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get device", err)
	}
	return d, nil
}

// ListDevices returns devices, newest first. receiptID filters by
// owning receipt when non-empty.
func (s *Store) ListDevices(receiptID models.UUID) ([]*models.Device, error) {
	query := "SELECT " + deviceCols + " FROM devices"
	var args []interface{}
	if receiptID != "" {
		query += " WHERE receipt_id = ?"
		args = append(args, receiptID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list devices", err)
	}
	defer rows.Close()

	var out []*models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan device", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeviceUpdate carries the fields of a partial device update.
// Nil fields are left unchanged.
type DeviceUpdate struct {
	Name                   *string
	Brand                  *string
	PurchaseDate           *int64
	WarrantyDurationMonths *int
	WarrantyExpiry         *int64
	Status                 *models.DeviceStatus
}

// UpdateDevice applies a partial update, re-derives warranty fields,
// and enqueues the mutation.
//
// WarrantyExpiry is recomputed when the purchase date or warranty
// duration changes, unless the update supplies an explicit expiry.
func (s *Store) UpdateDevice(id models.UUID, upd DeviceUpdate) (*models.Device, error) {
	var out *models.Device
	err := s.withTx(func(tx *sql.Tx) error {
		d, err := scanDevice(tx.QueryRow(
			"SELECT "+deviceCols+" FROM devices WHERE id = ?", id))
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperrors.Wrap(apperrors.ErrNotFound, "device "+id.String()+" not found", err)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get device", err)
		}

		if upd.Name != nil {
			d.Name = *upd.Name
		}
		if upd.Brand != nil {
			d.Brand = *upd.Brand
		}
		if upd.PurchaseDate != nil || upd.WarrantyDurationMonths != nil {
			if upd.PurchaseDate != nil {
				d.PurchaseDate = *upd.PurchaseDate
			}
			if upd.WarrantyDurationMonths != nil {
				d.WarrantyDurationMonths = *upd.WarrantyDurationMonths
			}
			// force re-derivation unless an explicit expiry comes with it
			d.WarrantyExpiry = 0
		}
		if upd.WarrantyExpiry != nil {
			d.WarrantyExpiry = *upd.WarrantyExpiry
		}
		if upd.Status != nil {
			d.Status = *upd.Status
		}

		now := s.now()
		d.Normalize(now)
		d.UpdatedAt = now.Unix()
		d.SyncStatus = models.SyncStatusPending

		_, err = tx.Exec(`
		UPDATE devices SET name = ?, brand = ?, purchase_date = ?,
			warranty_duration_months = ?, warranty_expiry = ?, status = ?,
			sync_status = ?, updated_at = ?
		WHERE id = ?`,
			d.Name, d.Brand, d.PurchaseDate, d.WarrantyDurationMonths,
			d.WarrantyExpiry, d.Status, d.SyncStatus, d.UpdatedAt, d.ID)
		if err != nil {
			return wrapWriteErr("failed to update device", err)
		}

		out = d
		return s.enqueue(tx, models.EntityDevice, d.ID, models.OpUpdate, d)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDevice deletes a device and its reminders, enqueueing one
// delete mutation for the device. Cascaded reminders are not enqueued;
// the remote applies reminder cleanup with the device delete.
func (s *Store) DeleteDevice(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM reminders WHERE device_id = ?", id); err != nil {
			return wrapWriteErr("failed to delete device reminders", err)
		}

		res, err := tx.Exec("DELETE FROM devices WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete device", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "device "+id.String()+" not found")
		}

		return s.enqueue(tx, models.EntityDevice, id, models.OpDelete, nil)
	})
}

const reminderCols = `id, device_id, remind_at, message, sync_status, created_at, updated_at`

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var r models.Reminder
	err := row.Scan(
		&r.ID, &r.DeviceID, &r.RemindAt, &r.Message,
		&r.SyncStatus, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReminder creates a reminder for a device and enqueues the
// create mutation.
func (s *Store) CreateReminder(r *models.Reminder) error {
	now := s.now().Unix()
	if r.ID == "" {
		r.ID = models.UUID(uuid.New())
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	r.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO reminders (`+reminderCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.DeviceID, r.RemindAt, r.Message,
			r.SyncStatus, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create reminder", err)
		}
		return s.enqueue(tx, models.EntityReminder, r.ID, models.OpCreate, r)
	})
}

// ListReminders returns the reminders owned by a device.
func (s *Store) ListReminders(deviceID models.UUID) ([]*models.Reminder, error) {
	rows, err := s.db.Query(
		"SELECT "+reminderCols+" FROM reminders WHERE device_id = ? ORDER BY remind_at", deviceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list reminders", err)
	}
	defer rows.Close()

	var out []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan reminder", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteReminder deletes a single reminder and enqueues the mutation.
func (s *Store) DeleteReminder(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM reminders WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete reminder", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "reminder "+id.String()+" not found")
		}
		return s.enqueue(tx, models.EntityReminder, id, models.OpDelete, nil)
	})
}
