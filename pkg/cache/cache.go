// Package cache stores rendered cover artifacts.
//
// Rendering a cover is deterministic: the same template, content bindings and
// source files always produce the same PNG. The cache exploits this by keying
// artifacts on a hash of those inputs, so repeated batch runs and repeated API
// requests only pay for the renders whose inputs changed.
//
// # Backends
//
//   - [FileCache]: entries as JSON files under a directory (CLI default)
//   - [RedisCache]: shared cache for multiple API instances
//   - [NullCache]: caching disabled
//
// # Keys
//
// Keys are produced by a [Keyer]. [DefaultKeyer] hashes the render inputs;
// [ScopedKeyer] prefixes keys so several deployments can share one Redis.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live values per artifact kind.
const (
	TTLArtifact = 7 * 24 * time.Hour
	TTLPreview  = 24 * time.Hour
)
