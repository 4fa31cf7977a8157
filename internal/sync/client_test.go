package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
)

func TestClientReady(t *testing.T) {
	err := NewClient("", "", 0).Ready()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSyncNotConfigured))

	err = NewClient("http://localhost:9999", "", 0).Ready()
	assert.True(t, apperrors.Is(err, apperrors.ErrSyncNotConfigured))

	assert.NoError(t, NewClient("http://localhost:9999", "tok", 0).Ready())
}

func TestClientPushItem(t *testing.T) {
	var gotAuth, gotPath string
	var gotItem models.SyncQueueItem
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotItem))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	err := c.PushItem(context.Background(), &models.SyncQueueItem{
		ID:         7,
		EntityType: models.EntityReceipt,
		EntityID:   "r-1",
		Operation:  models.OpCreate,
		Payload:    json.RawMessage(`{"id":"r-1"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/sync", gotPath)
	assert.Equal(t, models.UUID("r-1"), gotItem.EntityID)
	assert.Equal(t, models.OpCreate, gotItem.Operation)
}

func TestClientPushBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync/batch", r.URL.Path)
		var body struct {
			Items []*models.SyncQueueItem `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(BatchResult{Success: len(body.Items) - 1, Failed: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	res, err := c.PushBatch(context.Background(), []*models.SyncQueueItem{
		{ID: 1, EntityType: models.EntityReceipt, EntityID: "a", Operation: models.OpCreate},
		{ID: 2, EntityType: models.EntityReceipt, EntityID: "b", Operation: models.OpUpdate},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 1, res.Failed)
}

func TestClientPull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync/pull", r.URL.Path)
		w.Write([]byte(`{
			"receipts": [{"id":"r-1","store_name":"S","updated_at":1}],
			"householdBills": [{"id":"b-1","provider":"Power Co","updated_at":1}],
			"settings": {"id":"s-1","user_id":"u-1","updated_at":1}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	snap, err := c.Pull(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Receipts, 1)
	require.Len(t, snap.HouseholdBills, 1)
	assert.NotEmpty(t, snap.Settings)
	assert.False(t, snap.Empty())
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	err := c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSyncFailed))
}

func TestClientTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, "secret", 50*time.Millisecond)
	err := c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSyncTimeout))
}
