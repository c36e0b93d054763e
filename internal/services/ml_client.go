package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ErrSidecarStatus is returned when the ML sidecar answers with a non-200.
var ErrSidecarStatus = errors.New("ml sidecar: unexpected status")

// HTTPMLClient talks to the ML sidecar that turns text into embeddings.
type HTTPMLClient struct {
	url    string
	client *http.Client
}

var _ MLClient = (*HTTPMLClient)(nil)

// NewHTTPMLClient creates a new HTTPMLClient.
func NewHTTPMLClient(url string) *HTTPMLClient {
	return &HTTPMLClient{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetEmbedding posts text to /embedding and decodes the float vector.
func (c *HTTPMLClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("ml sidecar: marshal request: %w", err)
	}

	var embedding []float32
	if err := c.call(ctx, http.MethodPost, "/embedding", bytes.NewReader(body), &embedding); err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("ml sidecar: empty embedding")
	}
	return embedding, nil
}

// Health checks the sidecar's /health endpoint.
func (c *HTTPMLClient) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPMLClient) call(
	ctx context.Context, method, path string, body io.Reader, out any,
) error {
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("ml sidecar: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ml sidecar: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %d", ErrSidecarStatus, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ml sidecar: decode %s: %w", path, err)
	}
	return nil
}
