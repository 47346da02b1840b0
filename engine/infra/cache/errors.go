package cache

import "errors"

// Canonical, backend-neutral errors the cache tiers return.
var (
	// ErrNotFound means no live entry exists for the key in any tier.
	ErrNotFound = errors.New("cache: not found")
	// ErrSharedTierUnavailable means the shared tier could not be reached.
	// The cache degrades to the in-process tier; this error is never
	// surfaced as a request failure.
	ErrSharedTierUnavailable = errors.New("cache: shared tier unavailable")
)
