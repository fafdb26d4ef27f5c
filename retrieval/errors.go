package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/meridianworks/codeatlas/internal/circuitbreaker"
)

var (
	// ErrUnavailable marks a backend that could not be reached or refused
	// the connection. The cascade treats it like an insufficient result and
	// advances to the next tier.
	ErrUnavailable = errors.New("retrieval: backend unavailable")
	// ErrBackendTimeout marks a backend call that exceeded its per-step
	// timeout.
	ErrBackendTimeout = errors.New("retrieval: backend timeout")
)

// IsTimeout reports whether err represents a per-call timeout, including
// context deadline errors surfaced by the transport.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrBackendTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// classify maps a transport or dependency error onto the backend error
// taxonomy so the cascade can label attempts uniformly.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
