package store

import (
	"context"
	"time"
)

// Store is the ephemeral key-value cache shared by the security
// coordinators. All operations are atomic per key; no cross-key
// transactions are assumed.
//
// Get returns the empty string without error when the key is absent;
// errors indicate infrastructure failure only. Delete returns the previous
// value, which is the serialization point for at-most-once consumption and
// idempotent cleanup: callers treat a non-empty previous value as proof
// that they performed the effective removal.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) (string, error)
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	SetAdd(ctx context.Context, setKey string, members ...string) error
	SetRemove(ctx context.Context, setKey string, members ...string) error
	SetMembers(ctx context.Context, setKey string) ([]string, error)
}
