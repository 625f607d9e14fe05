// Package store implements the tiny KV contract spec §4.4 consumes for
// warm-start persistence: getString/setString/getBytes/setBytes/delete/clear.
// The pool manager treats the store as an optional accelerant, never a
// source of truth — read failures surface as CacheParseError, write
// failures propagate, and an empty store is a cold start, not an error.
package store

import "context"

// Store is the KV contract every backend (memory, file, Redis)
// implements identically.
type Store interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string) error
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Well-known keys for the two cached proxy sets (spec §6).
const (
	KeyCachedProxies          = "CACHED_PROXIES"
	KeyCachedValidatedProxies = "CACHED_VALIDATED_PROXIES"
)
