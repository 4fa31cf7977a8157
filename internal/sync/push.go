// Package sync provides the offline mutation queue drain and remote
// reconciliation engine.
package sync

import (
	"context"
	"time"

	"github.com/yihsuanlo/homevault/backend/internal/config"
	"github.com/yihsuanlo/homevault/backend/internal/db"
	"github.com/yihsuanlo/homevault/backend/internal/logging"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/sync/queue"
)

// PushResult aggregates the outcome of one drain.
type PushResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Deleted int `json:"deleted"` // purged as expired or over-retried
}

// Pusher drains the mutation queue against the remote store.
//
// Concurrency is serialized by the Engine; a Pusher itself does not
// guard against overlapping drains.
type Pusher struct {
	store  *db.Store
	queue  *queue.Queue
	remote Remote

	batchSize  int
	batchPause time.Duration
	maxRetries int
	maxAge     time.Duration
}

// NewPusher creates a Pusher with the given sync configuration.
func NewPusher(store *db.Store, q *queue.Queue, remote Remote, cfg config.SyncConfig) *Pusher {
	return &Pusher{
		store:      store,
		queue:      q,
		remote:     remote,
		batchSize:  cfg.BatchSize,
		batchPause: cfg.BatchPause,
		maxRetries: cfg.MaxRetries,
		maxAge:     cfg.MaxAge,
	}
}

// Drain pushes every pending queue item to the remote store.
//
// A missing credential aborts immediately before any queue mutation.
// Per-item failures are recorded on the item and reported in the
// aggregate counts; they never abort the drain.
func (p *Pusher) Drain(ctx context.Context) (*PushResult, error) {
	if err := p.remote.Ready(); err != nil {
		return nil, err
	}

	res := &PushResult{}

	purged, err := p.queue.PurgeExpired(p.maxAge, p.maxRetries)
	if err != nil {
		return nil, err
	}
	res.Deleted = int(purged)
	if purged > 0 {
		// These mutations are dropped permanently; eventual-consistency
		// trade-off by contract.
		logging.Warn("purged expired queue items", logging.Fields{"count": purged})
	}

	// Warm-up probe; a cold remote is slow on the first real call.
	if err := p.remote.Health(ctx); err != nil {
		logging.Warn("sync warm-up failed", logging.Fields{"error": err.Error()})
	}

	items, err := p.queue.ListPending(p.maxAge, p.maxRetries)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return res, nil
	}

	// Deletes carry no bulk-safe payload and always go individually.
	var deletes, upserts []*models.SyncQueueItem
	for _, item := range items {
		if item.Operation == models.OpDelete {
			deletes = append(deletes, item)
		} else {
			upserts = append(upserts, item)
		}
	}

	for _, item := range deletes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p.pushOne(ctx, item, res)
	}

	for start := 0; start < len(upserts); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		end := start + p.batchSize
		if end > len(upserts) {
			end = len(upserts)
		}
		batch := upserts[start:end]

		br, err := p.remote.PushBatch(ctx, batch)
		if err == nil && br.Failed == 0 {
			for _, item := range batch {
				p.markSuccess(item, res)
			}
		} else {
			// The batch response doesn't say which item failed, so the
			// whole batch falls back to individual pushes.
			if err != nil {
				logging.Warn("batch push failed, falling back to individual sync",
					logging.Fields{"size": len(batch), "error": err.Error()})
			} else {
				logging.Warn("batch push partially failed, falling back to individual sync",
					logging.Fields{"size": len(batch), "failed": br.Failed})
			}
			for _, item := range batch {
				if err := ctx.Err(); err != nil {
					return res, err
				}
				p.pushOne(ctx, item, res)
			}
		}

		if end < len(upserts) && p.batchPause > 0 {
			select {
			case <-time.After(p.batchPause):
			case <-ctx.Done():
				return res, ctx.Err()
			}
		}
	}

	logging.Info("drain complete", logging.Fields{
		"success": res.Success, "failed": res.Failed, "deleted": res.Deleted,
	})
	return res, nil
}

// pushOne sends a single item and records its outcome.
func (p *Pusher) pushOne(ctx context.Context, item *models.SyncQueueItem, res *PushResult) {
	if err := p.remote.PushItem(ctx, item); err != nil {
		if qErr := p.queue.MarkFailed(item.ID, err); qErr != nil {
			logging.Error("failed to record push failure", qErr,
				logging.Fields{"queue_id": item.ID})
		}
		res.Failed++
		logging.Warn("push failed", logging.Fields{
			"entity_type": item.EntityType,
			"entity_id":   item.EntityID,
			"operation":   item.Operation,
			"retry_count": item.RetryCount + 1,
			"error":       err.Error(),
		})
		return
	}
	p.markSuccess(item, res)
}

// markSuccess removes the queue item and flips the source entity to
// synced. Deletes have no surviving entity to mark.
func (p *Pusher) markSuccess(item *models.SyncQueueItem, res *PushResult) {
	if err := p.queue.Delete(item.ID); err != nil {
		logging.Error("failed to delete pushed queue item", err,
			logging.Fields{"queue_id": item.ID})
	}
	if item.Operation != models.OpDelete {
		if err := p.store.MarkSynced(item.EntityType, item.EntityID); err != nil {
			logging.Error("failed to mark entity synced", err,
				logging.Fields{"entity_type": item.EntityType, "entity_id": item.EntityID})
		}
	}
	res.Success++
}
