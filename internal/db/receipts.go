// Package db provides the transactional entity store.
package db

import (
	"database/sql"
	stderrors "errors"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/uuid"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const receiptCols = `id, store_name, purchase_date, total_amount, category, notes,
	sync_status, created_at, updated_at`

func scanReceipt(row rowScanner) (*models.Receipt, error) {
	var r models.Receipt
	err := row.Scan(
		&r.ID, &r.StoreName, &r.PurchaseDate, &r.TotalAmount, &r.Category,
		&r.Notes, &r.SyncStatus, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReceipt creates a receipt and enqueues the create mutation.
func (s *Store) CreateReceipt(r *models.Receipt) error {
	now := s.now().Unix()
	if r.ID == "" {
		r.ID = models.UUID(uuid.New())
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	r.TotalAmount = models.CoerceAmount(r.TotalAmount)
	r.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO receipts (`+receiptCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.StoreName, r.PurchaseDate, r.TotalAmount, r.Category,
			r.Notes, r.SyncStatus, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create receipt", err)
		}
		return s.enqueue(tx, models.EntityReceipt, r.ID, models.OpCreate, r)
	})
}

// GetReceipt retrieves a receipt by id.
func (s *Store) GetReceipt(id models.UUID) (*models.Receipt, error) {
	r, err := scanReceipt(s.db.QueryRow(
		"SELECT "+receiptCols+" FROM receipts WHERE id = ?", id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "receipt "+id.String()+" not found", err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get receipt", err)
	}
	return r, nil
}

// ListReceipts returns receipts, newest first.
func (s *Store) ListReceipts(limit, offset int) ([]*models.Receipt, error) {
	rows, err := s.db.Query(
		"SELECT "+receiptCols+" FROM receipts ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list receipts", err)
	}
	defer rows.Close()

	var out []*models.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan receipt", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReceiptUpdate carries the fields of a partial receipt update.
// Nil fields are left unchanged.
type ReceiptUpdate struct {
	StoreName    *string
	PurchaseDate *int64
	TotalAmount  *float64
	Category     *string
	Notes        *string
}

// UpdateReceipt applies a partial update and enqueues the mutation.
func (s *Store) UpdateReceipt(id models.UUID, upd ReceiptUpdate) (*models.Receipt, error) {
	var out *models.Receipt
	err := s.withTx(func(tx *sql.Tx) error {
		r, err := scanReceipt(tx.QueryRow(
			"SELECT "+receiptCols+" FROM receipts WHERE id = ?", id))
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperrors.Wrap(apperrors.ErrNotFound, "receipt "+id.String()+" not found", err)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get receipt", err)
		}

		if upd.StoreName != nil {
			r.StoreName = *upd.StoreName
		}
		if upd.PurchaseDate != nil {
			r.PurchaseDate = *upd.PurchaseDate
		}
		if upd.TotalAmount != nil {
			r.TotalAmount = *upd.TotalAmount
		}
		if upd.Category != nil {
			r.Category = *upd.Category
		}
		if upd.Notes != nil {
			r.Notes = *upd.Notes
		}
		r.TotalAmount = models.CoerceAmount(r.TotalAmount)
		r.UpdatedAt = s.now().Unix()
		r.SyncStatus = models.SyncStatusPending

		_, err = tx.Exec(`
		UPDATE receipts SET store_name = ?, purchase_date = ?, total_amount = ?,
			category = ?, notes = ?, sync_status = ?, updated_at = ?
		WHERE id = ?`,
			r.StoreName, r.PurchaseDate, r.TotalAmount, r.Category, r.Notes,
			r.SyncStatus, r.UpdatedAt, r.ID)
		if err != nil {
			return wrapWriteErr("failed to update receipt", err)
		}

		out = r
		return s.enqueue(tx, models.EntityReceipt, r.ID, models.OpUpdate, r)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteReceipt deletes a receipt, cascading to its devices and their
// reminders. One delete mutation is enqueued for the receipt and one
// per cascaded device, all in the same transaction.
func (s *Store) DeleteReceipt(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT id FROM devices WHERE receipt_id = ?", id)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to list receipt devices", err)
		}
		var deviceIDs []models.UUID
		for rows.Next() {
			var did models.UUID
			if err := rows.Scan(&did); err != nil {
				rows.Close()
				return apperrors.Wrap(apperrors.ErrDatabase, "failed to scan device id", err)
			}
			deviceIDs = append(deviceIDs, did)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to list receipt devices", err)
		}

		for _, did := range deviceIDs {
			if _, err := tx.Exec("DELETE FROM reminders WHERE device_id = ?", did); err != nil {
				return wrapWriteErr("failed to delete device reminders", err)
			}
		}
		if _, err := tx.Exec("DELETE FROM devices WHERE receipt_id = ?", id); err != nil {
			return wrapWriteErr("failed to delete receipt devices", err)
		}

		res, err := tx.Exec("DELETE FROM receipts WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete receipt", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "receipt "+id.String()+" not found")
		}

		if err := s.enqueue(tx, models.EntityReceipt, id, models.OpDelete, nil); err != nil {
			return err
		}
		for _, did := range deviceIDs {
			if err := s.enqueue(tx, models.EntityDevice, did, models.OpDelete, nil); err != nil {
				return err
			}
		}
		return nil
	})
}
