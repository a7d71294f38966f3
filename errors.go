package fusioncache

import "errors"

// Common errors for cache operations
var (
	// ErrFusionDisabled is returned by the unified Put and typed get
	// methods when the cache was constructed with fusion disabled.
	// The per-tier handles are not affected.
	ErrFusionDisabled = errors.New("fusioncache: fusion mode is disabled")

	// ErrInvalidCapacity is returned by New when a tier capacity is negative.
	ErrInvalidCapacity = errors.New("fusioncache: cache capacity must be non-negative")

	// ErrItemTooLarge is returned when a single item exceeds the disk
	// cache capacity.
	ErrItemTooLarge = errors.New("fusioncache: item too large for cache")

	// ErrCacheCorrupted is returned when cached data cannot be decoded.
	ErrCacheCorrupted = errors.New("fusioncache: cache data corrupted")
)
