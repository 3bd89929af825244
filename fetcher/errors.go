package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Reason classifies a fetch failure.
type Reason string

const (
	ReasonTimeout       Reason = "timeout"
	ReasonNetwork       Reason = "network"
	ReasonHTTPStatus    Reason = "http_status"
	ReasonRobotsBlocked Reason = "robots_blocked"
)

// FetchError is the only error type Fetch returns, apart from context cancellation.
type FetchError struct {
	URL        string
	Reason     Reason
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Reason == ReasonHTTPStatus {
		return fmt.Sprintf("fetch %s: %s %d after %d attempt(s)", e.URL, e.Reason, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %s after %d attempt(s): %v", e.URL, e.Reason, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// errStatus carries a non-2xx status through the retry loop.
type errStatus struct{ code int }

func (e errStatus) Error() string { return fmt.Sprintf("http status %d", e.code) }

// classify maps a transport or status error onto a Reason.
func classify(err error) (Reason, int) {
	var status errStatus
	if errors.As(err, &status) {
		return ReasonHTTPStatus, status.code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout, 0
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout, 0
	}
	return ReasonNetwork, 0
}

// retryable reports whether another attempt could succeed. Client errors
// other than 408 and 429 are final.
func retryable(err error) bool {
	var status errStatus
	if !errors.As(err, &status) {
		return true
	}
	switch {
	case status.code == http.StatusRequestTimeout, status.code == http.StatusTooManyRequests:
		return true
	case status.code >= 400 && status.code < 500:
		return false
	default:
		return true
	}
}
