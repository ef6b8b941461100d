// Package orb is a client for the local HTTP API of an Orb network-quality
// monitoring agent. It fetches time-series dataset records and maps transport
// and response failures onto ConnectionError and APIError.
package orb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/orbwatch-hq/orb-local-go/pkg/httpclient"
)

// Format selects the response encoding requested from the agent.
type Format string

const (
	// FormatJSON requests a single JSON array of record objects.
	FormatJSON Format = "json"
	// FormatJSONL requests line-delimited JSON, one record object per line.
	FormatJSONL Format = "jsonl"
)

const (
	// DefaultBaseURL is the local analytics endpoint of an agent running on
	// the same host.
	DefaultBaseURL = "http://localhost:7080"

	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 1 * time.Second
	maxRetryDelay         = 10 * time.Second

	datasetPathTemplate = "/api/v2/datasets/%s.%s"
	userAgent           = "orb-local-go/0.1.0"
)

// Config holds client construction parameters. The zero value of every field
// falls back to a default; Config is not consulted after New returns.
type Config struct {
	// BaseURL is the agent address, default DefaultBaseURL.
	BaseURL string
	// CallerID identifies this consumer to the agent; the agent tracks
	// delivered records per caller. Sent as the id query parameter.
	CallerID string
	// Timeout bounds each individual request attempt.
	Timeout time.Duration
	// MaxRetries is the total number of attempts for transient transport
	// failures, minimum 1.
	MaxRetries int
	// RetryBaseDelay is the backoff before the second attempt; it doubles per
	// attempt and is capped at 10s.
	RetryBaseDelay time.Duration
	// Headers are sent on every request and override the defaults on key
	// collision.
	Headers map[string]string
	// Transport overrides the resty-backed default, used by tests.
	Transport httpclient.Client
}

// Client fetches dataset records from a single agent. A Client is ready as
// soon as New returns and terminal once Close is called. Concurrent fetches
// are fine; Close must not race an in-flight fetch.
type Client struct {
	baseURL        string
	callerID       string
	maxRetries     int
	retryBaseDelay time.Duration
	headers        map[string]string
	transport      httpclient.Client
	closed         atomic.Bool
}

// New builds a Client and acquires its transport.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}

	headers := map[string]string{
		"User-Agent":   userAgent,
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	transport := cfg.Transport
	if transport == nil {
		transport = httpclient.NewRestyClient(cfg.Timeout)
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		callerID:       cfg.CallerID,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		headers:        headers,
		transport:      transport,
	}
}

// With runs fn against a freshly constructed Client and guarantees Close on
// every exit path.
func With(cfg Config, fn func(*Client) error) error {
	c := New(cfg)
	defer c.Close()
	return fn(c)
}

// Close releases the transport. Close is idempotent; any fetch after Close
// fails with a ConnectionError.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	type closer interface{ Close() error }
	if cl, ok := c.transport.(closer); ok {
		return cl.Close()
	}
	return nil
}

// FetchOption overrides per-call fetch parameters.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	format   Format
	callerID string
}

// WithFormat selects the response encoding, default FormatJSON.
func WithFormat(f Format) FetchOption {
	return func(o *fetchOptions) { o.format = f }
}

// WithCallerID overrides the configured caller identifier for one call.
func WithCallerID(id string) FetchOption {
	return func(o *fetchOptions) { o.callerID = id }
}

// Records fetches one dataset and returns its rows as generic Records with
// every response field preserved.
func (c *Client) Records(ctx context.Context, dataset string, opts ...FetchOption) ([]Record, error) {
	raw, err := c.fetch(ctx, dataset, opts)
	if err != nil {
		return nil, err
	}
	return decodeRecords[Record](raw)
}

// fetch runs the request pipeline: build the URL, issue the GET with bounded
// retry on transport failures, classify the response, and split it into one
// raw message per record.
func (c *Client) fetch(ctx context.Context, dataset string, opts []FetchOption) ([]json.RawMessage, error) {
	if c.closed.Load() {
		return nil, &ConnectionError{Message: "client is closed"}
	}
	if strings.TrimSpace(dataset) == "" {
		return nil, &APIError{Message: "dataset name is empty"}
	}

	o := fetchOptions{format: FormatJSON, callerID: c.callerID}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.format != FormatJSON && o.format != FormatJSONL {
		return nil, &APIError{Message: fmt.Sprintf("unsupported format %q", o.format)}
	}

	target := c.buildURL(dataset, o.format, o.callerID)

	resp, err := c.do(ctx, target)
	if err != nil {
		return nil, err
	}
	return classifyResponse(resp, o.format)
}

// do issues the GET and retries transport-level failures with exponential
// backoff. HTTP error statuses are not transient and are never retried here.
func (c *Client) do(ctx context.Context, target string) (httpclient.Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := c.transport.Get(ctx, target, c.headers)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, &ConnectionError{
				Message: fmt.Sprintf("request to %s aborted", target),
				Err:     ctx.Err(),
			}
		}
		if attempt >= c.maxRetries {
			return nil, connectionError(target, err)
		}

		timer := time.NewTimer(backoffDelay(c.retryBaseDelay, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &ConnectionError{
				Message: fmt.Sprintf("request to %s aborted", target),
				Err:     ctx.Err(),
			}
		case <-timer.C:
		}
	}
}

// buildURL substitutes dataset and format into the endpoint template and
// attaches the caller id as a query parameter.
func (c *Client) buildURL(dataset string, format Format, callerID string) string {
	target := c.baseURL + fmt.Sprintf(datasetPathTemplate, url.PathEscape(dataset), format)
	if callerID != "" {
		target += "?id=" + url.QueryEscape(callerID)
	}
	return target
}

// backoffDelay doubles the base delay per completed attempt, capped at
// maxRetryDelay.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	shift := attempt - 1
	if shift > 16 {
		shift = 16
	}
	d := base << shift
	if d <= 0 || d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// connectionError maps a transport failure onto a ConnectionError, keeping a
// timeout-specific message for diagnosability.
func connectionError(target string, err error) *ConnectionError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ConnectionError{
			Message: fmt.Sprintf("timeout connecting to %s", target),
			Err:     err,
		}
	}
	return &ConnectionError{
		Message: fmt.Sprintf("network error connecting to %s", target),
		Err:     err,
	}
}

// classifyResponse applies the error taxonomy: status >= 400 is an API error
// (with the error body decoded when possible), a 2xx body must parse as the
// requested encoding, and a parsed body must be a list of records.
func classifyResponse(resp httpclient.Response, format Format) ([]json.RawMessage, error) {
	body := resp.Body()
	status := resp.StatusCode()

	if status >= 400 {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err == nil {
			msg, _ := payload["error"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, &APIError{
				Message:    fmt.Sprintf("HTTP %d: %s", status, msg),
				StatusCode: status,
				Response:   payload,
			}
		}
		return nil, &APIError{
			Message:    fmt.Sprintf("HTTP %d: %s", status, bodySnippet(body)),
			StatusCode: status,
			RawBody:    string(body),
		}
	}

	if format == FormatJSONL {
		return splitJSONLines(body, status)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		if !json.Valid(body) {
			return nil, &APIError{
				Message:    fmt.Sprintf("failed to parse JSON response: %v", err),
				StatusCode: status,
				RawBody:    string(body),
			}
		}
		return nil, &APIError{
			Message:    "unexpected response format: expected a JSON array of records",
			StatusCode: status,
			RawBody:    string(body),
		}
	}
	return items, nil
}

// splitJSONLines parses a line-delimited JSON body, skipping blank lines.
func splitJSONLines(body []byte, status int) ([]json.RawMessage, error) {
	var items []json.RawMessage
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, &APIError{
				Message:    "failed to parse JSONL response line",
				StatusCode: status,
				RawBody:    string(body),
			}
		}
		item := make(json.RawMessage, len(line))
		copy(item, line)
		items = append(items, item)
	}
	return items, nil
}

// decodeRecords unmarshals each raw record into T. A record that does not
// decode is an API-class failure carrying the offending element.
func decodeRecords[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, &APIError{
				Message: fmt.Sprintf("unexpected record shape at index %d: %v", i, err),
				RawBody: string(item),
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// bodySnippet trims the body for use in error messages.
func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
