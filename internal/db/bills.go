// Package db provides the transactional entity store.
package db

import (
	"database/sql"
	stderrors "errors"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/uuid"
)

const billCols = `id, provider, bill_type, amount, due_date, paid, sync_status, created_at, updated_at`

func scanBill(row rowScanner) (*models.HouseholdBill, error) {
	var b models.HouseholdBill
	err := row.Scan(
		&b.ID, &b.Provider, &b.BillType, &b.Amount, &b.DueDate,
		&b.Paid, &b.SyncStatus, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateHouseholdBill creates a bill and enqueues the create mutation.
func (s *Store) CreateHouseholdBill(b *models.HouseholdBill) error {
	now := s.now().Unix()
	if b.ID == "" {
		b.ID = models.UUID(uuid.New())
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Amount = models.CoerceAmount(b.Amount)
	b.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO household_bills (`+billCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Provider, b.BillType, b.Amount, b.DueDate, b.Paid,
			b.SyncStatus, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create household bill", err)
		}
		return s.enqueue(tx, models.EntityHouseholdBill, b.ID, models.OpCreate, b)
	})
}

// GetHouseholdBill retrieves a bill by id.
func (s *Store) GetHouseholdBill(id models.UUID) (*models.HouseholdBill, error) {
	b, err := scanBill(s.db.QueryRow(
		"SELECT "+billCols+" FROM household_bills WHERE id = ?", id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "household bill "+id.String()+" not found", err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get household bill", err)
	}
	return b, nil
}

// HouseholdBillUpdate carries the fields of a partial bill update.
type HouseholdBillUpdate struct {
	Provider *string
	BillType *string
	Amount   *float64
	DueDate  *int64
	Paid     *bool
}

// UpdateHouseholdBill applies a partial update and enqueues the mutation.
func (s *Store) UpdateHouseholdBill(id models.UUID, upd HouseholdBillUpdate) (*models.HouseholdBill, error) {
	var out *models.HouseholdBill
	err := s.withTx(func(tx *sql.Tx) error {
		b, err := scanBill(tx.QueryRow(
			"SELECT "+billCols+" FROM household_bills WHERE id = ?", id))
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperrors.Wrap(apperrors.ErrNotFound, "household bill "+id.String()+" not found", err)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get household bill", err)
		}

		if upd.Provider != nil {
			b.Provider = *upd.Provider
		}
		if upd.BillType != nil {
			b.BillType = *upd.BillType
		}
		if upd.Amount != nil {
			b.Amount = *upd.Amount
		}
		if upd.DueDate != nil {
			b.DueDate = *upd.DueDate
		}
		if upd.Paid != nil {
			b.Paid = *upd.Paid
		}
		b.Amount = models.CoerceAmount(b.Amount)
		b.UpdatedAt = s.now().Unix()
		b.SyncStatus = models.SyncStatusPending

		_, err = tx.Exec(`
		UPDATE household_bills SET provider = ?, bill_type = ?, amount = ?,
			due_date = ?, paid = ?, sync_status = ?, updated_at = ?
		WHERE id = ?`,
			b.Provider, b.BillType, b.Amount, b.DueDate, b.Paid,
			b.SyncStatus, b.UpdatedAt, b.ID)
		if err != nil {
			return wrapWriteErr("failed to update household bill", err)
		}

		out = b
		return s.enqueue(tx, models.EntityHouseholdBill, b.ID, models.OpUpdate, b)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteHouseholdBill deletes a bill and enqueues the mutation.
func (s *Store) DeleteHouseholdBill(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM household_bills WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete household bill", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "household bill "+id.String()+" not found")
		}
		return s.enqueue(tx, models.EntityHouseholdBill, id, models.OpDelete, nil)
	})
}

// CreateRecurringBill creates a recurring bill template and enqueues
// the create mutation.
func (s *Store) CreateRecurringBill(b *models.RecurringBill) error {
	now := s.now().Unix()
	if b.ID == "" {
		b.ID = models.UUID(uuid.New())
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Amount = models.CoerceAmount(b.Amount)
	b.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO recurring_bills (id, name, amount, interval_months, next_due,
			sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, b.Amount, b.IntervalMonths, b.NextDue,
			b.SyncStatus, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create recurring bill", err)
		}
		return s.enqueue(tx, models.EntityRecurringBill, b.ID, models.OpCreate, b)
	})
}

// DeleteRecurringBill deletes a recurring bill and enqueues the mutation.
func (s *Store) DeleteRecurringBill(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM recurring_bills WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete recurring bill", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "recurring bill "+id.String()+" not found")
		}
		return s.enqueue(tx, models.EntityRecurringBill, id, models.OpDelete, nil)
	})
}
