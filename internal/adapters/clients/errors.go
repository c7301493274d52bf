// Package clients provides the instrumented HTTP client used for upstream calls.
package clients

import "errors"

// Transport-level failures. The ACL layer translates them into domain errors.
var (
	// ErrCircuitOpen is returned without contacting the upstream while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
