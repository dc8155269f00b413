// Package upstream tags failures from external model calls so callers
// can tell timeouts, rate limits, and malformed responses apart instead
// of collapsing everything into one generic upstream error.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
)

var (
	// ErrTimeout marks a call that exceeded its deadline.
	ErrTimeout = errors.New("upstream call timed out")
	// ErrRateLimited marks a 429 from the provider.
	ErrRateLimited = errors.New("upstream rate limit exceeded")
	// ErrMalformedResponse marks a reply missing expected content.
	ErrMalformedResponse = errors.New("upstream returned a malformed response")
)

// Classify wraps err with the failure kind it represents. The original
// error stays in the chain. No kind is attached when none applies.
func Classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %w", op, ErrRateLimited, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
