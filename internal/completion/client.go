// Package completion sends composed prompts to a text-generation service.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Client returns the text generated for a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Error is returned for any failed completion call. Retryable marks failures
// that may succeed on a later attempt (rate limits, server errors, transport errors).
type Error struct {
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion service returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion service: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a completion error worth retrying.
func IsRetryable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Retryable
}

// ErrEmptyCompletion is returned when the service answers without usable text.
var ErrEmptyCompletion = errors.New("empty completion")

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
