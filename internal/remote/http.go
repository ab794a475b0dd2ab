package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/scope"
)

const maxResponseBytes = 16 << 20

// Config configures the HTTP backend client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	GuestHeader string
	HTTPClient  *http.Client // optional; overrides Timeout
}

// Client is the shared HTTP transport for all collection gateways.
type Client struct {
	baseURL     string
	guestHeader string
	httpClient  *http.Client
}

// NewClient creates a backend client.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		guestHeader: cfg.GuestHeader,
		httpClient:  hc,
	}
}

// envelope is the backend's response wrapper.
type envelope[T any] struct {
	Data  T               `json:"data"`
	Error json.RawMessage `json:"error,omitempty"`
}

// errorMessage extracts a message from a string or {"message": ...} error value.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}

func (c *Client) do(ctx context.Context, method, path string, id scope.Identity, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	id.Apply(req.Header, c.guestHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	logging.RemoteDebug("%s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var env envelope[json.RawMessage]
		if json.Unmarshal(respBody, &env) == nil {
			if m := errorMessage(env.Error); m != "" {
				msg = m
			}
		}
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrRemote, method, path, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// HTTPGateway implements Gateway and Deleter for one backend collection.
type HTTPGateway[T any] struct {
	client     *Client
	collection string
}

// NewGateway binds a collection path to the shared client.
func NewGateway[T any](c *Client, collection string) *HTTPGateway[T] {
	return &HTTPGateway[T]{client: c, collection: collection}
}

func (g *HTTPGateway[T]) Fetch(ctx context.Context, id scope.Identity) ([]T, error) {
	var env envelope[[]T]
	if err := g.client.do(ctx, http.MethodGet, "/"+g.collection, id, nil, &env); err != nil {
		return nil, err
	}
	if msg := errorMessage(env.Error); msg != "" {
		return nil, fmt.Errorf("%w: fetch %s: %s", ErrRemote, g.collection, msg)
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	return env.Data, nil
}

func (g *HTTPGateway[T]) Save(ctx context.Context, id scope.Identity, record T) (T, error) {
	var zero T
	var env envelope[*T]
	if err := g.client.do(ctx, http.MethodPost, "/"+g.collection, id, record, &env); err != nil {
		return zero, err
	}
	if msg := errorMessage(env.Error); msg != "" {
		return zero, fmt.Errorf("%w: save %s: %s", ErrRemote, g.collection, msg)
	}
	if env.Data == nil {
		return zero, fmt.Errorf("%w: save %s: response carried no record", ErrRemote, g.collection)
	}
	return *env.Data, nil
}

func (g *HTTPGateway[T]) Delete(ctx context.Context, id scope.Identity, recordID string) (bool, error) {
	var env envelope[struct {
		Success bool `json:"success"`
	}]
	path := "/" + g.collection + "/" + url.PathEscape(recordID)
	if err := g.client.do(ctx, http.MethodDelete, path, id, nil, &env); err != nil {
		return false, err
	}
	if msg := errorMessage(env.Error); msg != "" {
		return false, fmt.Errorf("%w: delete %s: %s", ErrRemote, g.collection, msg)
	}
	return env.Data.Success, nil
}
