// Package db provides the transactional entity store.
package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/logging"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/sync/queue"
)

// Store owns all entity records. Every create/update/delete runs in a
// single transaction that also appends the matching sync queue row, so
// a committed mutation is always visible to the push synchronizer.
type Store struct {
	db    *sql.DB
	queue *queue.Queue
	now   func() time.Time
}

// NewStore creates a Store over the given database and queue.
func NewStore(db *sql.DB, q *queue.Queue) *Store {
	return &Store{db: db, queue: q, now: time.Now}
}

// DB exposes the underlying handle for the pull reconciler, which
// needs a transaction spanning all entity tables.
func (s *Store) DB() *sql.DB {
	return s.db
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to commit transaction", err)
	}
	return nil
}

// enqueue appends a queue row for the mutation inside the same
// transaction. payload may be nil for deletes.
func (s *Store) enqueue(tx *sql.Tx, entityType models.EntityType, id models.UUID, op models.Operation, payload interface{}) error {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, "failed to marshal queue payload", err)
		}
	}
	return s.queue.Enqueue(tx, entityType, id, op, raw)
}

// wrapWriteErr classifies a storage error as duplicate or database.
func wrapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return apperrors.Wrap(apperrors.ErrDuplicate, op, err)
	}
	return apperrors.Wrap(apperrors.ErrDatabase, op, err)
}

// entityTables maps entity types to their table names.
var entityTables = map[models.EntityType]string{
	models.EntityReceipt:       models.Receipt{}.TableName(),
	models.EntityDevice:        models.Device{}.TableName(),
	models.EntityReminder:      models.Reminder{}.TableName(),
	models.EntityHouseholdBill: models.HouseholdBill{}.TableName(),
	models.EntityDocument:      models.Document{}.TableName(),
	models.EntitySubscription:  models.Subscription{}.TableName(),
	models.EntitySettings:      models.Settings{}.TableName(),
	models.EntityTag:           models.Tag{}.TableName(),
	models.EntityBudget:        models.Budget{}.TableName(),
	models.EntityRecurringBill: models.RecurringBill{}.TableName(),
}

// MarkSynced flips a record to synced after a successful push.
// A record deleted locally in the meantime is not an error.
func (s *Store) MarkSynced(entityType models.EntityType, id models.UUID) error {
	table, ok := entityTables[entityType]
	if !ok {
		return apperrors.New(apperrors.ErrInvalid, "unknown entity type "+string(entityType))
	}
	_, err := s.db.Exec("UPDATE "+table+" SET sync_status = ? WHERE id = ?", models.SyncStatusSynced, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to mark "+string(entityType)+" synced", err)
	}
	return nil
}

// RequeuePending re-enqueues every pending-status entity, typically
// after an import. Entities whose id already has an outstanding queue
// item are skipped, so running it twice produces no duplicates.
func (s *Store) RequeuePending() (int, error) {
	count := 0
	err := s.withTx(func(tx *sql.Tx) error {
		for entityType, table := range entityTables {
			rows, err := tx.Query("SELECT id FROM " + table + " WHERE sync_status = 'pending'")
			if err != nil {
				return apperrors.Wrap(apperrors.ErrDatabase, "failed to list pending "+table, err)
			}
			var ids []models.UUID
			for rows.Next() {
				var id models.UUID
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return apperrors.Wrap(apperrors.ErrDatabase, "failed to scan id", err)
				}
				ids = append(ids, id)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return apperrors.Wrap(apperrors.ErrDatabase, "failed to list pending "+table, err)
			}

			for _, id := range ids {
				queued, err := s.queue.Has(tx, id)
				if err != nil {
					return err
				}
				if queued {
					continue
				}
				payload, err := snapshotRow(tx, table, id)
				if err != nil {
					return err
				}
				if err := s.queue.Enqueue(tx, entityType, id, models.OpCreate, payload); err != nil {
					return err
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logging.Info("re-queued pending entities", logging.Fields{"count": count})
	}
	return count, nil
}

// snapshotRow reads one row as a JSON object keyed by column name.
// Used only by the bulk re-queue path, where the payload shape just
// needs to mirror what the original enqueue would have carried.
func snapshotRow(tx *sql.Tx, table string, id models.UUID) ([]byte, error) {
	rows, err := tx.Query("SELECT * FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to read "+table+" row", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to read columns", err)
	}
	if !rows.Next() {
		return nil, apperrors.New(apperrors.ErrNotFound, table+" row "+id.String()+" not found")
	}

	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan row", err)
	}

	obj := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		if b, ok := vals[i].([]byte); ok {
			obj[c] = string(b)
		} else {
			obj[c] = vals[i]
		}
	}
	return json.Marshal(obj)
}
