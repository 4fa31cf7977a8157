// Package sync provides the offline mutation queue drain and remote
// reconciliation engine.
package sync

import (
	"context"
	"database/sql"
	stderrors "errors"
	"encoding/json"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/db"
	"github.com/yihsuanlo/homevault/backend/internal/logging"
	"github.com/yihsuanlo/homevault/backend/internal/models"
)

// MergeCounts reports per-entity-type merge outcomes.
type MergeCounts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// MergeResult aggregates one merge of a remote snapshot.
type MergeResult struct {
	Receipts       MergeCounts `json:"receipts"`
	Devices        MergeCounts `json:"devices"`
	Reminders      MergeCounts `json:"reminders"`
	HouseholdBills MergeCounts `json:"household_bills"`
	Documents      MergeCounts `json:"documents"`
	Subscriptions  MergeCounts `json:"subscriptions"`
	SettingsMerged bool        `json:"settings_merged"`
}

// Reconciler merges remote snapshots into the local store with a
// coarse last-write-wins rule that never overwrites unsynced local
// changes.
type Reconciler struct {
	db *sql.DB
}

// NewReconciler creates a Reconciler over the store's database.
func NewReconciler(store *db.Store) *Reconciler {
	return &Reconciler{db: store.DB()}
}

// mergeAction is the decision for a single remote record.
type mergeAction int

const (
	actionInsert mergeAction = iota
	actionOverwrite
	actionSkip
)

// decide applies the merge rule for one record:
// absent locally → insert; local pending → skip (local wins
// unconditionally, push will reconcile); else overwrite only when the
// remote is strictly newer.
func decide(tx *sql.Tx, table string, id models.UUID, remoteUpdated int64) (mergeAction, error) {
	var status models.SyncStatus
	var localUpdated int64
	err := tx.QueryRow(
		"SELECT sync_status, updated_at FROM "+table+" WHERE id = ?", id,
	).Scan(&status, &localUpdated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return actionInsert, nil
	}
	if err != nil {
		return actionSkip, apperrors.Wrap(apperrors.ErrDatabase, "failed to read local "+table, err)
	}

	if status == models.SyncStatusPending {
		return actionSkip, nil
	}
	if remoteUpdated > localUpdated {
		return actionOverwrite, nil
	}
	return actionSkip, nil
}

// Merge merges a remote snapshot inside one transaction spanning all
// entity tables: a mid-merge failure leaves the local store unchanged.
//
// A single malformed record is counted as skipped and never aborts the
// rest of the merge.
func (r *Reconciler) Merge(ctx context.Context, snap *models.RemoteSnapshot) (*MergeResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to begin merge transaction", err)
	}

	res := &MergeResult{}
	err = func() error {
		if res.Receipts, err = r.mergeReceipts(tx, snap.Receipts); err != nil {
			return err
		}
		if res.Devices, err = r.mergeDevices(tx, snap.Devices); err != nil {
			return err
		}
		if res.Reminders, err = r.mergeReminders(tx, snap.Reminders); err != nil {
			return err
		}
		if res.HouseholdBills, err = r.mergeHouseholdBills(tx, snap.HouseholdBills); err != nil {
			return err
		}
		if res.Documents, err = r.mergeDocuments(tx, snap.Documents); err != nil {
			return err
		}
		if res.Subscriptions, err = r.mergeSubscriptions(tx, snap.Subscriptions); err != nil {
			return err
		}
		merged, err := r.mergeSettings(tx, snap.Settings)
		if err != nil {
			return err
		}
		res.SettingsMerged = merged
		return nil
	}()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to commit merge", err)
	}

	logging.Info("merge complete", logging.Fields{
		"receipts":        res.Receipts,
		"devices":         res.Devices,
		"reminders":       res.Reminders,
		"household_bills": res.HouseholdBills,
		"documents":       res.Documents,
		"subscriptions":   res.Subscriptions,
		"settings_merged": res.SettingsMerged,
	})
	return res, nil
}

func skipMalformed(entity string, err error) {
	logging.Warn("skipping malformed remote record", logging.Fields{
		"entity": entity, "error": err.Error(),
	})
}

func (r *Reconciler) mergeReceipts(tx *sql.Tx, raws []json.RawMessage) (MergeCounts, error) {
	var c MergeCounts
	for _, raw := range raws {
		rec, err := models.DecodeReceipt(raw)
		if err != nil {
			skipMalformed("receipt", err)
			c.Skipped++
			continue
		}
		action, err := decide(tx, rec.TableName(), rec.ID, rec.UpdatedAt)
		if err != nil {
			return c, err
		}
		switch action {
		case actionInsert:
			_, err = tx.Exec(`
			INSERT INTO receipts (id, store_name, purchase_date, total_amount,
				category, notes, sync_status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.StoreName, rec.PurchaseDate, rec.TotalAmount,
				rec.Category, rec.Notes, models.SyncStatusSynced,
				rec.CreatedAt, rec.UpdatedAt)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to insert remote receipt", err)
			}
			c.Added++
		case actionOverwrite:
			_, err = tx.Exec(`
			UPDATE receipts SET store_name = ?, purchase_date = ?, total_amount = ?,
				category = ?, notes = ?, sync_status = ?, updated_at = ?
			WHERE id = ?`,
				rec.StoreName, rec.PurchaseDate, rec.TotalAmount, rec.Category,
				rec.Notes, models.SyncStatusSynced, rec.UpdatedAt, rec.ID)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to overwrite receipt", err)
			}
			c.Updated++
		default:
			c.Skipped++
		}
	}
	return c, nil
}

func (r *Reconciler) mergeDevices(tx *sql.Tx, raws []json.RawMessage) (MergeCounts, error) {
	var c MergeCounts
	for _, raw := range raws {
		d, err := models.DecodeDevice(raw)
		if err != nil {
			skipMalformed("device", err)
			c.Skipped++
			continue
		}
		action, err := decide(tx, d.TableName(), d.ID, d.UpdatedAt)
		if err != nil {
			return c, err
		}
		var receiptID interface{}
		if d.ReceiptID != "" {
			receiptID = d.ReceiptID
		}
		switch action {
		case actionInsert:
			_, err = tx.Exec(`
			INSERT INTO devices (id, receipt_id, name, brand, purchase_date,
				warranty_duration_months, warranty_expiry, status, sync_status,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				d.ID, receiptID, d.Name, d.Brand, d.PurchaseDate,
				d.WarrantyDurationMonths, d.WarrantyExpiry, d.Status,
				models.SyncStatusSynced, d.CreatedAt, d.UpdatedAt)
			if err != nil {
				// Likely an orphan pointing at a receipt this client
				// never saw; treat as a bad record, not a merge abort.
				skipMalformed("device", err)
				c.Skipped++
				continue
			}
			c.Added++
		case actionOverwrite:
			_, err = tx.Exec(`
			UPDATE devices SET receipt_id = ?, name = ?, brand = ?, purchase_date = ?,
				warranty_duration_months = ?, warranty_expiry = ?, status = ?,
				sync_status = ?, updated_at = ?
			WHERE id = ?`,
				receiptID, d.Name, d.Brand, d.PurchaseDate,
				d.WarrantyDurationMonths, d.WarrantyExpiry, d.Status,
				models.SyncStatusSynced, d.UpdatedAt, d.ID)
			if err != nil {
				skipMalformed("device", err)
				c.Skipped++
				continue
			}
			c.Updated++
		default:
			c.Skipped++
		}
	}
	return c, nil
}

func (r *Reconciler) mergeReminders(tx *sql.Tx, raws []json.RawMessage) (MergeCounts, error) {
	var c MergeCounts
	for _, raw := range raws {
		rem, err := models.DecodeReminder(raw)
		if err != nil {
			skipMalformed("reminder", err)
			c.Skipped++
			continue
		}
		action, err := decide(tx, rem.TableName(), rem.ID, rem.UpdatedAt)
		if err != nil {
			return c, err
		}
		switch action {
		case actionInsert:
			_, err = tx.Exec(`
			INSERT INTO reminders (id, device_id, remind_at, message, sync_status,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rem.ID, rem.DeviceID, rem.RemindAt, rem.Message,
				models.SyncStatusSynced, rem.CreatedAt, rem.UpdatedAt)
			if err != nil {
				// Likely an orphan pointing at a device this client
				// never saw; treat as a bad record, not a merge abort.
				skipMalformed("reminder", err)
				c.Skipped++
				continue
			}
			c.Added++
		case actionOverwrite:
			_, err = tx.Exec(`
			UPDATE reminders SET device_id = ?, remind_at = ?, message = ?,
				sync_status = ?, updated_at = ?
			WHERE id = ?`,
				rem.DeviceID, rem.RemindAt, rem.Message,
				models.SyncStatusSynced, rem.UpdatedAt, rem.ID)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to overwrite reminder", err)
			}
			c.Updated++
		default:
			c.Skipped++
		}
	}
	return c, nil
}

func (r *Reconciler) mergeHouseholdBills(tx *sql.Tx, raws []json.RawMessage) (MergeCounts, error) {
	var c MergeCounts
	for _, raw := range raws {
		b, err := models.DecodeHouseholdBill(raw)
		if err != nil {
			skipMalformed("household_bill", err)
			c.Skipped++
			continue
		}
		action, err := decide(tx, b.TableName(), b.ID, b.UpdatedAt)
		if err != nil {
			return c, err
		}
		switch action {
		case actionInsert:
			_, err = tx.Exec(`
			INSERT INTO household_bills (id, provider, bill_type, amount, due_date,
				paid, sync_status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				b.ID, b.Provider, b.BillType, b.Amount, b.DueDate, b.Paid,
				models.SyncStatusSynced, b.CreatedAt, b.UpdatedAt)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to insert remote bill", err)
			}
			c.Added++
		case actionOverwrite:
			_, err = tx.Exec(`
			UPDATE household_bills SET provider = ?, bill_type = ?, amount = ?,
				due_date = ?, paid = ?, sync_status = ?, updated_at = ?
			WHERE id = ?`,
				b.Provider, b.BillType, b.Amount, b.DueDate, b.Paid,
				models.SyncStatusSynced, b.UpdatedAt, b.ID)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to overwrite bill", err)
			}
			c.Updated++
		default:
			c.Skipped++
		}
	}
	return c, nil
}

func (r *Reconciler) mergeDocuments(tx *sql.Tx, raws []json.RawMessage) (MergeCounts, error) {
	var c MergeCounts
	for _, raw := range raws {
		d, err := models.DecodeDocument(raw)
		if err != nil {
			skipMalformed("document", err)
			c.Skipped++
			continue
		}
		action, err := decide(tx, d.TableName(), d.ID, d.UpdatedAt)
		if err != nil {
			return c, err
		}
		switch action {
		case actionInsert:
			_, err = tx.Exec(`
			INSERT INTO documents (id, title, file_path, mime_type, tags,
				sync_status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				d.ID, d.Title, d.FilePath, d.MimeType, d.Tags,
				models.SyncStatusSynced, d.CreatedAt, d.UpdatedAt)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to insert remote document", err)
			}
			c.Added++
		case actionOverwrite:
			_, err = tx.Exec(`
			UPDATE documents SET title = ?, file_path = ?, mime_type = ?, tags = ?,
				sync_status = ?, updated_at = ?
			WHERE id = ?`,
				d.Title, d.FilePath, d.MimeType, d.Tags,
				models.SyncStatusSynced, d.UpdatedAt, d.ID)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to overwrite document", err)
			}
			c.Updated++
		default:
			c.Skipped++
		}
	}
	return c, nil
}

func (r *Reconciler) mergeSubscriptions(tx *sql.Tx, raws []json.RawMessage) (MergeCounts, error) {
	var c MergeCounts
	for _, raw := range raws {
		sub, err := models.DecodeSubscription(raw)
		if err != nil {
			skipMalformed("subscription", err)
			c.Skipped++
			continue
		}
		action, err := decide(tx, sub.TableName(), sub.ID, sub.UpdatedAt)
		if err != nil {
			return c, err
		}
		switch action {
		case actionInsert:
			_, err = tx.Exec(`
			INSERT INTO subscriptions (id, name, amount, billing_cycle, next_renewal,
				active, sync_status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sub.ID, sub.Name, sub.Amount, sub.BillingCycle, sub.NextRenewal,
				sub.Active, models.SyncStatusSynced, sub.CreatedAt, sub.UpdatedAt)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to insert remote subscription", err)
			}
			c.Added++
		case actionOverwrite:
			_, err = tx.Exec(`
			UPDATE subscriptions SET name = ?, amount = ?, billing_cycle = ?,
				next_renewal = ?, active = ?, sync_status = ?, updated_at = ?
			WHERE id = ?`,
				sub.Name, sub.Amount, sub.BillingCycle, sub.NextRenewal,
				sub.Active, models.SyncStatusSynced, sub.UpdatedAt, sub.ID)
			if err != nil {
				return c, apperrors.Wrap(apperrors.ErrDatabase, "failed to overwrite subscription", err)
			}
			c.Updated++
		default:
			c.Skipped++
		}
	}
	return c, nil
}

// mergeSettings merges the single remote settings record, matching the
// local row by user id (ids may differ across devices; the user_id
// column is the stable key).
func (r *Reconciler) mergeSettings(tx *sql.Tx, raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}

	st, err := models.DecodeSettings(raw)
	if err != nil {
		skipMalformed("settings", err)
		return false, nil
	}

	var localID models.UUID
	var status models.SyncStatus
	var localUpdated int64
	err = tx.QueryRow(
		"SELECT id, sync_status, updated_at FROM settings WHERE user_id = ?", st.UserID,
	).Scan(&localID, &status, &localUpdated)
	if stderrors.Is(err, sql.ErrNoRows) {
		_, err = tx.Exec(`
		INSERT INTO settings (id, user_id, currency, locale, notifications_enabled,
			sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.UserID, st.Currency, st.Locale, st.NotificationsEnabled,
			models.SyncStatusSynced, st.CreatedAt, st.UpdatedAt)
		if err != nil {
			return false, apperrors.Wrap(apperrors.ErrDatabase, "failed to insert remote settings", err)
		}
		return true, nil
	}
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrDatabase, "failed to read local settings", err)
	}

	if status == models.SyncStatusPending || st.UpdatedAt <= localUpdated {
		return false, nil
	}

	_, err = tx.Exec(`
	UPDATE settings SET currency = ?, locale = ?, notifications_enabled = ?,
		sync_status = ?, updated_at = ?
	WHERE id = ?`,
		st.Currency, st.Locale, st.NotificationsEnabled,
		models.SyncStatusSynced, st.UpdatedAt, localID)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrDatabase, "failed to overwrite settings", err)
	}
	return true, nil
}
