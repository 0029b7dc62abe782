package api

import (
	"errors"
	"fmt"
)

// ErrNotFound marks responses where the requested test, task or attempt does
// not resolve on the server. Retrying cannot fix it, so callers render a
// dedicated not-found state instead of a retry affordance.
var ErrNotFound = errors.New("not found")

// RequestError is a transient transport or server failure. StatusCode is 0
// when the request never reached the server.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: server responded %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable request failure rather than
// a not-found or a local programming error.
func IsTransient(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
