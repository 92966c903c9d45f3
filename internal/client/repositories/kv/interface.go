package kv

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// Usage is the number of bytes currently counted against the quota.
	Usage(ctx context.Context) (int64, error)
	// Quota is the configured limit in bytes; 0 means unlimited.
	Quota() int64
}
