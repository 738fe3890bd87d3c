package redis

import "errors"

var (
	// ErrCacheMiss is returned when a cached value does not exist.
	ErrCacheMiss = errors.New("cache miss")

	// ErrKeyNotFound is returned when a raw key does not exist.
	ErrKeyNotFound = errors.New("key not found")
)
