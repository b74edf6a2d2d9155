package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StorageClient talks to the storage service that owns uploaded files.
// Link and Unlink are called from the best-effort task runner; the
// caller of the primary operation never waits on them.
type StorageClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// FileLinkRequest associates uploaded files with the resource that
// references them.
type FileLinkRequest struct {
	URLs         []string `json:"urls"`
	ResourceType string   `json:"resourceType"`
	ResourceID   string   `json:"resourceId"`
}

// NewStorageClient creates a storage service client.
func NewStorageClient(baseURL string, timeout time.Duration) *StorageClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StorageClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// LinkFiles marks the given file URLs as referenced by a resource.
func (c *StorageClient) LinkFiles(ctx context.Context, req FileLinkRequest) error {
	return c.post(ctx, "/api/files/link", req)
}

// UnlinkFiles releases the file URLs referenced by a resource.
func (c *StorageClient) UnlinkFiles(ctx context.Context, req FileLinkRequest) error {
	return c.post(ctx, "/api/files/unlink", req)
}

func (c *StorageClient) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-internal-request", "true")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storage service returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
