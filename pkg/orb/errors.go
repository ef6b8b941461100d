package orb

import "fmt"

// ConnectionError reports a failure below the HTTP response layer: the agent
// is unreachable, the request timed out, or the client was used after Close.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// APIError reports a failure signaled by the HTTP response itself: a non-2xx
// status, a body that is not valid JSON, or JSON of an unexpected shape.
// Response holds the decoded error body when it parsed as JSON; RawBody holds
// the verbatim response text when it did not.
type APIError struct {
	Message    string
	StatusCode int
	Response   map[string]any
	RawBody    string
}

func (e *APIError) Error() string { return e.Message }
