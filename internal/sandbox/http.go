package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single HTTP round trip to the sandbox service.
const DefaultTimeout = 2 * time.Minute

const maxErrorBody = 4096

// Config describes how to reach the sandbox service.
type Config struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	Template string

	// HTTPClient overrides the transport; its Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

// HTTPClient is the blocking, stateless variant: every call runs in a fresh
// remote interpreter.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// HTTPSession is a remote interpreter session. It is safe for concurrent
// use, but calls from different goroutines share interpreter state.
type HTTPSession struct {
	client *HTTPClient
	id     string

	mu     sync.RWMutex
	closed bool
}

type (
	createSessionRequest struct {
		Template string `json:"template,omitempty"`
	}

	createSessionResponse struct {
		SessionID string `json:"session_id"`
	}
)

var (
	_ Executor = (*HTTPClient)(nil)
	_ Session  = (*HTTPSession)(nil)
)

// NewClient creates an HTTPClient. An APIKey is sent as a bearer token.
func NewClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	var client *http.Client
	if cfg.APIKey != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.APIKey,
			TokenType:   "Bearer",
		}))
	} else {
		cp := *base
		client = &cp
	}
	client.Timeout = timeout

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    client,
	}
}

// ExecuteCode runs a snippet without a session.
func (c *HTTPClient) ExecuteCode(ctx context.Context, req Request) (*Execution, error) {
	req, err := req.normalized()
	if err != nil {
		return nil, err
	}
	var exec Execution
	if err := c.do(ctx, http.MethodPost, "/v1/execute", req, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// Create opens a new remote session. The call blocks until the service has
// allocated the interpreter.
func Create(ctx context.Context, cfg Config) (*HTTPSession, error) {
	client := NewClient(cfg)

	var resp createSessionResponse
	err := client.do(ctx, http.MethodPost, "/v1/sessions",
		createSessionRequest{Template: cfg.Template}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sandbox: create session: %w", err)
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("sandbox: create session: empty session id")
	}
	return &HTTPSession{client: client, id: resp.SessionID}, nil
}

// ID returns the remote session identifier.
func (s *HTTPSession) ID() string {
	return s.id
}

// ExecuteCode runs a snippet inside the session.
func (s *HTTPSession) ExecuteCode(ctx context.Context, req Request) (*Execution, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrSessionClosed
	}

	req, err := req.normalized()
	if err != nil {
		return nil, err
	}
	var exec Execution
	if err := s.client.do(ctx, http.MethodPost, s.path("execute"), req, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// Close releases the remote session. Closing twice is a no-op.
func (s *HTTPSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.client.do(ctx, http.MethodDelete, s.path(""), nil, nil); err != nil {
		return fmt.Errorf("sandbox: close session %s: %w", s.id, err)
	}
	return nil
}

func (s *HTTPSession) path(action string) string {
	p := "/v1/sessions/" + url.PathEscape(s.id)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *HTTPClient) do(
	ctx context.Context, method, path string, body, out any,
) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode,
			strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
