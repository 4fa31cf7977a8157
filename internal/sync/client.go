// Package sync provides the offline mutation queue drain and remote
// reconciliation engine for HomeVault Core.
package sync

import (
	"bytes"
	"context"
	stderrors "errors"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
)

// Remote is the remote sync API consumed by the push synchronizer and
// pull reconciler.
type Remote interface {
	// Ready reports whether a credential is configured. A non-nil
	// error is fatal for push and pull; no queue mutation may follow.
	Ready() error

	// Health is the cheap warm-up probe. Failure is non-fatal.
	Health(ctx context.Context) error

	// PushItem sends a single queue item.
	PushItem(ctx context.Context, item *models.SyncQueueItem) error

	// PushBatch sends up to a batch of create/update items. The
	// response does not identify which item failed.
	PushBatch(ctx context.Context, items []*models.SyncQueueItem) (*BatchResult, error)

	// Pull fetches the full remote snapshot.
	Pull(ctx context.Context) (*models.RemoteSnapshot, error)
}

// BatchResult is the remote's aggregate answer to a batch push.
type BatchResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Client talks to the remote sync service over HTTP with bearer auth.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a Client for the given endpoint. token may be
// empty, in which case Ready reports the missing credential.
func NewClient(endpoint, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: endpoint,
		token:   token,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Ready implements Remote.
func (c *Client) Ready() error {
	if c.baseURL == "" || c.token == "" {
		return apperrors.New(apperrors.ErrSyncNotConfigured, "remote endpoint or credential not configured")
	}
	return nil
}

// Health implements Remote.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// PushItem implements Remote.
func (c *Client) PushItem(ctx context.Context, item *models.SyncQueueItem) error {
	return c.do(ctx, http.MethodPost, "/sync", item, nil)
}

// PushBatch implements Remote.
func (c *Client) PushBatch(ctx context.Context, items []*models.SyncQueueItem) (*BatchResult, error) {
	body := struct {
		Items []*models.SyncQueueItem `json:"items"`
	}{Items: items}

	var out BatchResult
	if err := c.do(ctx, http.MethodPost, "/sync/batch", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pull implements Remote.
func (c *Client) Pull(ctx context.Context) (*models.RemoteSnapshot, error) {
	var snap models.RemoteSnapshot
	if err := c.do(ctx, http.MethodGet, "/sync/pull", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// do performs one authenticated request with a bounded timeout.
// Timeouts surface as ErrSyncTimeout so the caller can treat them as
// retryable rather than fatal.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, "failed to marshal request", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return apperrors.Wrap(apperrors.ErrSyncTimeout, method+" "+path+" timed out", err)
		}
		return apperrors.Wrap(apperrors.ErrSyncFailed, method+" "+path+" failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.New(apperrors.ErrSyncFailed,
			fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.Wrap(apperrors.ErrSyncFailed, "failed to decode response", err)
		}
	}
	return nil
}
