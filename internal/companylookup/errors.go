package companylookup

import "errors"

var (
	// ErrInvalidCUI means the supplied identifier normalizes to nothing.
	ErrInvalidCUI = errors.New("invalid company identifier")
	// ErrNotConfigured means no active API configuration (or key) exists.
	ErrNotConfigured = errors.New("company lookup is not configured")
	// ErrUnavailable means the upstream is still populating its cache and
	// the same lookup is worth retrying later. Terminal failures use plain
	// errors instead.
	ErrUnavailable = errors.New("company data temporarily unavailable")
)
