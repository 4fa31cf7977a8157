package scheduler

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yihsuanlo/homevault/backend/internal/sync"
)

// fakeSyncer counts engine invocations.
type fakeSyncer struct {
	mu        stdsync.Mutex
	fullSyncs int
	drains    int
	pending   int
	drainFn   func()
}

func (f *fakeSyncer) FullSync(context.Context) (*sync.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullSyncs++
	return &sync.SyncResult{}, nil
}

func (f *fakeSyncer) Drain(context.Context) (*sync.PushResult, error) {
	f.mu.Lock()
	fn := f.drainFn
	f.mu.Unlock()
	if fn != nil {
		fn()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.drains++
	return &sync.PushResult{}, nil
}

func (f *fakeSyncer) PendingChanges() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeSyncer) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullSyncs, f.drains
}

func TestSchedulerTicksWhileOnline(t *testing.T) {
	engine := &fakeSyncer{pending: 1}
	s := New(engine, Config{SyncInterval: 10 * time.Millisecond, QueueInterval: 10 * time.Millisecond})

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		syncs, drains := engine.counts()
		return syncs > 0 && drains > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerSkipsWhileOffline(t *testing.T) {
	engine := &fakeSyncer{pending: 1}
	s := New(engine, Config{SyncInterval: 10 * time.Millisecond, QueueInterval: 10 * time.Millisecond})

	s.SetOnline(context.Background(), false)
	assert.False(t, s.Online())

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(60 * time.Millisecond)
	syncs, drains := engine.counts()
	assert.Equal(t, 0, syncs)
	assert.Equal(t, 0, drains)
}

func TestSchedulerDrainsOnReconnect(t *testing.T) {
	engine := &fakeSyncer{pending: 3}
	// Long cadences so any drain must come from the reconnect path.
	s := New(engine, Config{SyncInterval: time.Hour, QueueInterval: time.Hour})

	s.Start(context.Background())
	defer s.Stop()

	s.SetOnline(context.Background(), false)
	s.SetOnline(context.Background(), true)

	assert.Eventually(t, func() bool {
		_, drains := engine.counts()
		return drains == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerReconnectWithEmptyQueue(t *testing.T) {
	engine := &fakeSyncer{pending: 0}
	s := New(engine, Config{SyncInterval: time.Hour, QueueInterval: time.Hour})

	s.Start(context.Background())
	defer s.Stop()

	s.SetOnline(context.Background(), false)
	s.SetOnline(context.Background(), true)

	time.Sleep(30 * time.Millisecond)
	_, drains := engine.counts()
	assert.Equal(t, 0, drains)
}

func TestSchedulerStopWaitsForReconnectDrain(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	engine := &fakeSyncer{pending: 1, drainFn: func() {
		close(started)
		<-release
	}}
	s := New(engine, Config{SyncInterval: time.Hour, QueueInterval: time.Hour})

	s.Start(context.Background())
	s.SetOnline(context.Background(), false)
	s.SetOnline(context.Background(), true)
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the reconnect drain was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped

	_, drains := engine.counts()
	assert.Equal(t, 1, drains)
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	engine := &fakeSyncer{}
	s := New(engine, Config{SyncInterval: time.Hour, QueueInterval: time.Hour})

	s.Start(context.Background())
	s.Start(context.Background()) // no-op
	s.Stop()
	s.Stop() // no-op
}
