// Package notify reports document processing status back to the tenant
// backend that owns the uploaded objects.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Document statuses reported to the sink.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

const statusPath = "/tenant-backend/v1/internal/customers/update-org-document"

// StatusClient delivers document-status callbacks over HTTP, authenticated
// with a shared API key.
type StatusClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStatusClient creates a status client for the given tenant-backend base
// URL. An empty baseURL yields a client whose notifications are no-ops,
// so deployments without a status sink need no special casing.
func NewStatusClient(baseURL, apiKey string) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type statusUpdate struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

// NotifyDocumentStatus posts the new status for an object key. A 404 from
// the sink means the document record is gone on their side; that is not an
// error for us. Other non-2xx responses are.
func (c *StatusClient) NotifyDocumentStatus(ctx context.Context, key, status string) error {
	if c.baseURL == "" {
		return nil
	}

	body, err := json.Marshal(statusUpdate{Key: key, Status: status})
	if err != nil {
		return fmt.Errorf("failed to encode status update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+statusPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call status sink: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status sink returned %d: %s", resp.StatusCode, string(msg))
	}
}
