package orb

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orbwatch-hq/orb-local-go/pkg/httpclient"
)

// fakeResponse implements httpclient.Response.
type fakeResponse struct {
	status int
	body   []byte
}

func (f *fakeResponse) Body() []byte    { return f.body }
func (f *fakeResponse) StatusCode() int { return f.status }

// fakeTransport implements httpclient.Client and counts attempts.
type fakeTransport struct {
	calls int
	resp  *fakeResponse
	err   error
}

func (f *fakeTransport) Get(_ context.Context, _ string, _ map[string]string) (httpclient.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func newTestClient(srvURL string) *Client {
	return New(Config{
		BaseURL:        srvURL,
		CallerID:       "test-client",
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestBuildURLSubstitution(t *testing.T) {
	var gotPath, gotCaller, gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCaller = r.URL.Query().Get("id")
		gotRawQuery = r.URL.RawQuery
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, CallerID: "svc one&two"})
	defer client.Close()

	if _, err := client.Records(context.Background(), DatasetScores1m); err != nil {
		t.Fatalf("Records returned error: %v", err)
	}
	if gotPath != "/api/v2/datasets/scores_1m.json" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotCaller != "svc one&two" {
		t.Errorf("caller id not round-tripped: %q", gotCaller)
	}
	if strings.Contains(gotRawQuery, " ") || strings.Contains(gotRawQuery, "&two") {
		t.Errorf("caller id not query-encoded: %q", gotRawQuery)
	}
}

func TestBuildURLFormatSuffix(t *testing.T) {
	c := New(Config{BaseURL: "http://agent.local:7080/"})
	defer c.Close()

	got := c.buildURL("speed_results", FormatJSONL, "cli")
	want := "http://agent.local:7080/api/v2/datasets/speed_results.jsonl?id=cli"
	if got != want {
		t.Fatalf("buildURL = %s, want %s", got, want)
	}
}

func TestRecordsPreservesUnknownFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"orb_id":"s1","orb_name":"den","device_name":"host1","orb_version":"1.2.3","timestamp":1700000000000,"orb_score":87.5,"wobble":"kept"},
			{"orb_id":"s1","orb_name":"den","device_name":"host1","orb_version":"1.2.3","timestamp":1700000060000}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	defer client.Close()

	records, err := client.Records(context.Background(), DatasetScores1m)
	if err != nil {
		t.Fatalf("Records returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	rec := records[0]
	if rec.OrbID() != "s1" || rec.DeviceName() != "host1" || rec.OrbVersion() != "1.2.3" {
		t.Errorf("identity fields not preserved: %#v", rec)
	}
	if rec.Timestamp() != 1700000000000 {
		t.Errorf("timestamp = %d", rec.Timestamp())
	}
	if v, ok := rec.String("wobble"); !ok || v != "kept" {
		t.Errorf("unknown field dropped: %#v", rec)
	}
}

func TestAPIErrorFromErrorBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal failure","code":"INTERNAL_ERROR"}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, MaxRetries: 3, RetryBaseDelay: time.Millisecond})
	defer client.Close()

	_, err := client.Records(context.Background(), DatasetScores1m)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "internal failure") {
		t.Errorf("message missing server error: %s", apiErr.Message)
	}
	if apiErr.Response["code"] != "INTERNAL_ERROR" {
		t.Errorf("error code not attached: %#v", apiErr.Response)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("5xx must not be retried, got %d requests", got)
	}
}

func TestNotFoundNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "no such dataset", http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, MaxRetries: 5, RetryBaseDelay: time.Millisecond})
	defer client.Close()

	_, err := client.Records(context.Background(), "bogus")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("404 must not be retried, got %d requests", got)
	}
}

func TestTransportFailureRetriesThenConnectionError(t *testing.T) {
	cause := errors.New("connection refused")
	transport := &fakeTransport{err: cause}
	client := New(Config{
		Transport:      transport,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	})
	defer client.Close()

	_, err := client.Records(context.Background(), DatasetScores1m)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("original error not wrapped: %v", err)
	}
	if transport.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", transport.calls)
	}
	if !strings.Contains(connErr.Message, "network error") {
		t.Errorf("unexpected message: %s", connErr.Message)
	}
}

func TestTimeoutClassifiedAsTimeout(t *testing.T) {
	transport := &fakeTransport{err: timeoutError{}}
	client := New(Config{Transport: transport, MaxRetries: 2, RetryBaseDelay: time.Millisecond})
	defer client.Close()

	_, err := client.Records(context.Background(), DatasetScores1m)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if !strings.Contains(connErr.Message, "timeout") {
		t.Errorf("timeout not reflected in message: %s", connErr.Message)
	}
	if transport.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", transport.calls)
	}
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := &fakeTransport{err: errors.New("unreachable")}
	client := New(Config{Transport: transport, MaxRetries: 5, RetryBaseDelay: time.Second})
	defer client.Close()

	_, err := client.Records(ctx, DatasetScores1m)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancellation cause not wrapped: %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("expected 1 attempt before bailing out, got %d", transport.calls)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	defer client.Close()

	_, err := client.Records(context.Background(), DatasetScores1m)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.RawBody != "invalid json" {
		t.Errorf("RawBody = %q, want original text", apiErr.RawBody)
	}
	if apiErr.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestObjectBodyWhereArrayRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"unexpected":"format"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	defer client.Close()

	_, err := client.Records(context.Background(), DatasetScores1m)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !strings.Contains(apiErr.Message, "unexpected response format") {
		t.Errorf("unexpected message: %s", apiErr.Message)
	}
	if apiErr.RawBody != `{"unexpected":"format"}` {
		t.Errorf("RawBody = %q", apiErr.RawBody)
	}
}

func TestJSONLFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".jsonl") {
			t.Errorf("expected jsonl suffix, got %s", r.URL.Path)
		}
		w.Write([]byte("{\"orb_id\":\"s1\",\"timestamp\":1}\n\n{\"orb_id\":\"s1\",\"timestamp\":2}\n"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	defer client.Close()

	records, err := client.Records(context.Background(), DatasetScores1m, WithFormat(FormatJSONL))
	if err != nil {
		t.Fatalf("Records returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Timestamp() != 2 {
		t.Errorf("second record timestamp = %d", records[1].Timestamp())
	}
}

func TestUnsupportedFormatRejectedBeforeRequest(t *testing.T) {
	transport := &fakeTransport{resp: &fakeResponse{status: 200, body: []byte("[]")}}
	client := New(Config{Transport: transport})
	defer client.Close()

	_, err := client.Records(context.Background(), DatasetScores1m, WithFormat("csv"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if transport.calls != 0 {
		t.Errorf("request must not be issued for bad format, got %d calls", transport.calls)
	}
}

func TestEmptyDatasetRejected(t *testing.T) {
	transport := &fakeTransport{resp: &fakeResponse{status: 200, body: []byte("[]")}}
	client := New(Config{Transport: transport})
	defer client.Close()

	if _, err := client.Records(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty dataset name")
	}
	if transport.calls != 0 {
		t.Errorf("request must not be issued for empty dataset, got %d calls", transport.calls)
	}
}

func TestCallerIDOverride(t *testing.T) {
	var gotCaller string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = r.URL.Query().Get("id")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, CallerID: "configured"})
	defer client.Close()

	if _, err := client.Records(context.Background(), DatasetScores1m, WithCallerID("override")); err != nil {
		t.Fatalf("Records returned error: %v", err)
	}
	if gotCaller != "override" {
		t.Errorf("caller id = %q, want override", gotCaller)
	}
}

func TestClosedClientFailsWithoutRequest(t *testing.T) {
	transport := &fakeTransport{resp: &fakeResponse{status: 200, body: []byte("[]")}}
	client := New(Config{Transport: transport})
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	_, err := client.Records(context.Background(), DatasetScores1m)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if !strings.Contains(connErr.Message, "closed") {
		t.Errorf("unexpected message: %s", connErr.Message)
	}
	if transport.calls != 0 {
		t.Errorf("closed client must not issue requests, got %d", transport.calls)
	}
}

func TestWithClosesOnExit(t *testing.T) {
	transport := &fakeTransport{resp: &fakeResponse{status: 200, body: []byte("[]")}}
	var captured *Client

	err := With(Config{Transport: transport}, func(c *Client) error {
		captured = c
		_, err := c.Records(context.Background(), DatasetScores1m)
		return err
	})
	if err != nil {
		t.Fatalf("With returned error: %v", err)
	}

	if _, err := captured.Records(context.Background(), DatasetScores1m); err == nil {
		t.Fatal("expected client to be closed after With returns")
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{30, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(time.Second, tc.attempt); got != tc.want {
			t.Errorf("backoffDelay(1s, %d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
