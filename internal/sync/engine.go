// Package sync provides the offline mutation queue drain and remote
// reconciliation engine.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/yihsuanlo/homevault/backend/internal/config"
	"github.com/yihsuanlo/homevault/backend/internal/db"
	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/logging"
	"github.com/yihsuanlo/homevault/backend/internal/sync/queue"
)

// ErrSyncInProgress is returned to callers that overlap a running
// sync. The single-flight model: overlapping callers fail fast rather
// than queueing behind the in-flight operation.
var ErrSyncInProgress = apperrors.New(apperrors.ErrSyncInProgress, "sync already in progress")

// SyncResult aggregates one full sync (pull then push).
type SyncResult struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	Pull      *MergeResult `json:"pull,omitempty"`
	PullError string       `json:"pull_error,omitempty"`
	Push      *PushResult  `json:"push,omitempty"`
}

// Engine composes the pull reconciler and push synchronizer into the
// externally callable sync operation, and serializes concurrent
// invocations with an instance-owned mutex (no package globals).
type Engine struct {
	store      *db.Store
	queue      *queue.Queue
	remote     Remote
	pusher     *Pusher
	reconciler *Reconciler

	// flight serializes drain and merge system-wide.
	flight sync.Mutex

	mu       sync.RWMutex // guards the status fields below
	lastSync *time.Time
	lastErr  error
}

// NewEngine creates an Engine wired to the given store, queue and
// remote API.
func NewEngine(store *db.Store, q *queue.Queue, remote Remote, cfg config.SyncConfig) *Engine {
	return &Engine{
		store:      store,
		queue:      q,
		remote:     remote,
		pusher:     NewPusher(store, q, remote, cfg),
		reconciler: NewReconciler(store),
	}
}

// FullSync pulls the remote snapshot, merges it, then drains the
// mutation queue. A pull failure does not block the push: local
// changes still go out, and the failed pull is reported in the result.
func (e *Engine) FullSync(ctx context.Context) (*SyncResult, error) {
	if !e.flight.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer e.flight.Unlock()

	if err := e.remote.Ready(); err != nil {
		e.setErr(err)
		return nil, err
	}

	result := &SyncResult{StartTime: time.Now()}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	snap, err := e.remote.Pull(ctx)
	if err != nil {
		result.PullError = err.Error()
		logging.Warn("pull failed, continuing with push", logging.Fields{"error": err.Error()})
	} else {
		merged, err := e.reconciler.Merge(ctx, snap)
		if err != nil {
			result.PullError = err.Error()
			logging.Error("merge failed, continuing with push", err)
		} else {
			result.Pull = merged
		}
	}

	pushed, err := e.pusher.Drain(ctx)
	if err != nil {
		e.setErr(err)
		return result, err
	}
	result.Push = pushed

	e.mu.Lock()
	now := time.Now()
	e.lastSync = &now
	e.lastErr = nil
	e.mu.Unlock()

	return result, nil
}

// Drain runs only the push half, under the same single-flight guard.
func (e *Engine) Drain(ctx context.Context) (*PushResult, error) {
	if !e.flight.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer e.flight.Unlock()

	res, err := e.pusher.Drain(ctx)
	if err != nil {
		e.setErr(err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) setErr(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

// LastSync returns the timestamp of the last successful full sync.
func (e *Engine) LastSync() *time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSync
}

// LastError returns the last sync error.
func (e *Engine) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// PendingChanges returns the number of queued mutations.
func (e *Engine) PendingChanges() (int, error) {
	return e.queue.Count()
}
