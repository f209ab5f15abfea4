// Package metadata stores small key/value pairs in the local state database:
// the sealed session token, the cached user profile and the session revision
// counter that other processes poll.
package metadata

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Increment atomically adds one to the decimal counter stored at key
	// (missing counts as zero) and returns the new value.
	Increment(ctx context.Context, key string) (uint64, error)
	// Counter reads the decimal counter at key; missing is zero.
	Counter(ctx context.Context, key string) (uint64, error)
}
