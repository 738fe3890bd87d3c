package access

import "errors"

// ErrDataUnavailable signals that one of the layers needed to resolve a
// user's permissions could not be read. Resolution fails closed: callers
// must deny and surface a retryable error, never fall back to a partial
// or stale answer beyond the configured cache policy.
var ErrDataUnavailable = errors.New("access data unavailable")

// IsDataUnavailable reports whether err is a data-unavailable failure.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}
