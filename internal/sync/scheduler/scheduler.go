// Package scheduler provides background sync scheduling.
//
// Two loops run while the scheduler is started: a full-sync loop on
// the configured interval, and a faster drain loop that retries the
// queue whenever mutations are pending. Both loops skip their tick
// while offline; connectivity changes are fed in by the host
// application via SetOnline.
package scheduler

import (
	"context"
	stdsync "sync"
	"time"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/logging"
	"github.com/yihsuanlo/homevault/backend/internal/sync"
)

// Syncer is the subset of the sync engine the scheduler drives.
type Syncer interface {
	FullSync(ctx context.Context) (*sync.SyncResult, error)
	Drain(ctx context.Context) (*sync.PushResult, error)
	PendingChanges() (int, error)
}

// Scheduler triggers background syncs.
type Scheduler struct {
	engine        Syncer
	syncInterval  time.Duration
	queueInterval time.Duration

	stopCh    chan struct{}
	wg        stdsync.WaitGroup
	mu        stdsync.RWMutex
	isRunning bool
	isOnline  bool
}

// Config holds scheduler cadences.
type Config struct {
	SyncInterval  time.Duration // full sync cadence when online
	QueueInterval time.Duration // drain retry cadence
}

// DefaultConfig returns the default scheduler cadences.
func DefaultConfig() Config {
	return Config{
		SyncInterval:  15 * time.Minute,
		QueueInterval: 1 * time.Minute,
	}
}

// New creates a Scheduler driving the given engine.
func New(engine Syncer, cfg Config) *Scheduler {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultConfig().SyncInterval
	}
	if cfg.QueueInterval <= 0 {
		cfg.QueueInterval = DefaultConfig().QueueInterval
	}
	return &Scheduler{
		engine:        engine,
		syncInterval:  cfg.SyncInterval,
		queueInterval: cfg.QueueInterval,
		stopCh:        make(chan struct{}),
		isOnline:      true, // assume online until told otherwise
	}
}

// Start launches the background loops. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.fullSyncLoop(ctx)
	go s.drainLoop(ctx)

	logging.Info("sync scheduler started", logging.Fields{
		"sync_interval":  s.syncInterval.String(),
		"queue_interval": s.queueInterval.String(),
	})
}

// Stop halts the background loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info("sync scheduler stopped")
}

// SetOnline feeds connectivity changes from the host application.
// Coming back online while the scheduler runs triggers an immediate
// drain attempt; Stop waits for it like any other loop work.
func (s *Scheduler) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	was := s.isOnline
	s.isOnline = online
	// wg.Add must stay under the lock so it cannot race Stop's Wait.
	trigger := online && !was && s.isRunning
	if trigger {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if trigger {
		go func() {
			defer s.wg.Done()
			s.drain(ctx)
		}()
	}
}

// Online reports the current connectivity assumption.
func (s *Scheduler) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isOnline
}

func (s *Scheduler) fullSyncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.Online() {
				continue
			}
			if _, err := s.engine.FullSync(ctx); err != nil {
				if apperrors.Is(err, apperrors.ErrSyncInProgress) {
					continue
				}
				logging.Warn("scheduled sync failed", logging.Fields{"error": err.Error()})
			}
		}
	}
}

func (s *Scheduler) drainLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.queueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.Online() {
				continue
			}
			s.drain(ctx)
		}
	}
}

// drain pushes the queue if anything is pending.
func (s *Scheduler) drain(ctx context.Context) {
	pending, err := s.engine.PendingChanges()
	if err != nil {
		logging.Error("failed to count pending changes", err)
		return
	}
	if pending == 0 {
		return
	}

	if _, err := s.engine.Drain(ctx); err != nil {
		if apperrors.Is(err, apperrors.ErrSyncInProgress) {
			return
		}
		logging.Warn("scheduled drain failed", logging.Fields{"error": err.Error()})
	}
}
