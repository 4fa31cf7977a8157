package queue

import (
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/yihsuanlo/homevault/backend/internal/models"
)

// setupQueue creates an in-memory queue table for testing.
func setupQueue(t *testing.T) (*Queue, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
	CREATE TABLE sync_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		payload TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);`)
	require.NoError(t, err)

	return New(db), db
}

func TestEnqueueAndListFIFO(t *testing.T) {
	q, db := setupQueue(t)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(db, models.EntityReceipt, models.UUID(id), models.OpCreate, []byte(`{}`)))
	}

	items, err := q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, models.UUID("a"), items[0].EntityID)
	assert.Equal(t, models.UUID("b"), items[1].EntityID)
	assert.Equal(t, models.UUID("c"), items[2].EntityID)
}

func TestEnqueueIsUnconditional(t *testing.T) {
	q, db := setupQueue(t)

	// At-least-once: the same entity may carry several queued mutations.
	require.NoError(t, q.Enqueue(db, models.EntityReceipt, "a", models.OpCreate, []byte(`{}`)))
	require.NoError(t, q.Enqueue(db, models.EntityReceipt, "a", models.OpUpdate, []byte(`{}`)))

	n, err := q.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMarkFailedIncrementsRetry(t *testing.T) {
	q, db := setupQueue(t)

	require.NoError(t, q.Enqueue(db, models.EntityDevice, "d1", models.OpUpdate, []byte(`{}`)))
	items, err := q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, q.MarkFailed(items[0].ID, stderrors.New("remote 503")))

	items, err = q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].RetryCount)
	assert.Equal(t, "remote 503", items[0].LastError)
}

func TestRetryBound(t *testing.T) {
	q, db := setupQueue(t)

	require.NoError(t, q.Enqueue(db, models.EntityDevice, "d1", models.OpUpdate, []byte(`{}`)))
	items, err := q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	id := items[0].ID

	// Fail MaxRetries-1 times: still listed.
	for i := 0; i < DefaultMaxRetries-1; i++ {
		require.NoError(t, q.MarkFailed(id, stderrors.New("timeout")))
	}
	items, err = q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, DefaultMaxRetries-1, items[0].RetryCount)

	// One more failure crosses the bound: no longer pending, purged.
	require.NoError(t, q.MarkFailed(id, stderrors.New("timeout")))
	items, err = q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	assert.Empty(t, items)

	purged, err := q.PurgeExpired(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestPurgeExpiredByAge(t *testing.T) {
	q, db := setupQueue(t)

	old := time.Now().Add(-8 * 24 * time.Hour)
	q.now = func() time.Time { return old }
	require.NoError(t, q.Enqueue(db, models.EntityReceipt, "stale", models.OpCreate, []byte(`{}`)))

	q.now = time.Now
	require.NoError(t, q.Enqueue(db, models.EntityReceipt, "fresh", models.OpCreate, []byte(`{}`)))

	items, err := q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.UUID("fresh"), items[0].EntityID)

	purged, err := q.PurgeExpired(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	n, err := q.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteAndHas(t *testing.T) {
	q, db := setupQueue(t)

	require.NoError(t, q.Enqueue(db, models.EntityTag, "t1", models.OpCreate, nil))

	has, err := q.Has(db, "t1")
	require.NoError(t, err)
	assert.True(t, has)

	items, err := q.ListPending(DefaultMaxAge, DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, q.Delete(items[0].ID))

	has, err = q.Has(db, "t1")
	require.NoError(t, err)
	assert.False(t, has)
}
