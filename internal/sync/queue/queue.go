// Package queue provides the durable mutation queue for offline writes.
//
// Every local entity mutation appends one row to the sync_queue table
// in the same transaction as the entity write, so a committed mutation
// always has exactly one pending queue item. Items live until the push
// synchronizer delivers them, or until they exceed the retry or age
// thresholds and are purged.
package queue

import (
	"database/sql"
	"time"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
)

const (
	// DefaultMaxRetries is how many failed pushes an item survives.
	DefaultMaxRetries = 5
	// DefaultMaxAge is how long an item may stay queued.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// Execer is satisfied by *sql.DB and *sql.Tx. Enqueue accepts it so
// callers can append queue rows inside their own transactions.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Queue manages pending sync operations backed by the sync_queue table.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a Queue over the given database.
func New(db *sql.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

// Enqueue appends a mutation unconditionally (at-least-once).
// exec should be the transaction carrying the entity write.
func (q *Queue) Enqueue(exec Execer, entityType models.EntityType, entityID models.UUID, op models.Operation, payload []byte) error {
	_, err := exec.Exec(`
	INSERT INTO sync_queue (entity_type, entity_id, operation, payload, created_at)
	VALUES (?, ?, ?, ?, ?)`,
		string(entityType), entityID, string(op), payload, q.now().Unix())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to enqueue mutation", err)
	}
	return nil
}

// ListPending returns items with retryCount < maxRetry and age ≤ maxAge,
// in FIFO order.
func (q *Queue) ListPending(maxAge time.Duration, maxRetry int) ([]*models.SyncQueueItem, error) {
	cutoff := q.now().Add(-maxAge).Unix()

	rows, err := q.db.Query(`
	SELECT id, entity_type, entity_id, operation, payload, retry_count, last_error, created_at
	FROM sync_queue
	WHERE retry_count < ? AND created_at >= ?
	ORDER BY id`,
		maxRetry, cutoff)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list queue", err)
	}
	defer rows.Close()

	var items []*models.SyncQueueItem
	for rows.Next() {
		var item models.SyncQueueItem
		var payload sql.NullString
		if err := rows.Scan(
			&item.ID, &item.EntityType, &item.EntityID, &item.Operation,
			&payload, &item.RetryCount, &item.LastError, &item.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan queue item", err)
		}
		if payload.Valid {
			item.Payload = []byte(payload.String)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// PurgeExpired deletes items exceeding either the retry or the age
// threshold and returns how many were removed. The dropped mutations
// are permanently lost; this is the documented eventual-consistency
// trade-off, not an error.
func (q *Queue) PurgeExpired(maxAge time.Duration, maxRetry int) (int64, error) {
	cutoff := q.now().Add(-maxAge).Unix()

	res, err := q.db.Exec(
		"DELETE FROM sync_queue WHERE retry_count >= ? OR created_at < ?",
		maxRetry, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to purge queue", err)
	}
	return res.RowsAffected()
}

// MarkFailed increments the retry counter and records the cause.
func (q *Queue) MarkFailed(id int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := q.db.Exec(
		"UPDATE sync_queue SET retry_count = retry_count + 1, last_error = ? WHERE id = ?",
		msg, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to mark queue item", err)
	}
	return nil
}

// Delete removes a successfully pushed item.
func (q *Queue) Delete(id int64) error {
	_, err := q.db.Exec("DELETE FROM sync_queue WHERE id = ?", id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete queue item", err)
	}
	return nil
}

// Has reports whether any queue item exists for the given entity id.
// Used by the bulk re-queue path to stay idempotent.
func (q *Queue) Has(exec Execer, entityID models.UUID) (bool, error) {
	var n int
	err := exec.QueryRow(
		"SELECT COUNT(*) FROM sync_queue WHERE entity_id = ?", entityID).Scan(&n)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrDatabase, "failed to check queue", err)
	}
	return n > 0, nil
}

// Count returns the number of queued items.
func (q *Queue) Count() (int, error) {
	var n int
	if err := q.db.QueryRow("SELECT COUNT(*) FROM sync_queue").Scan(&n); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to count queue", err)
	}
	return n, nil
}
