package port

import (
	"context"
	"time"
)

// ObjectStorage stores uploaded documents under scoped keys
type ObjectStorage interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// SignedURL returns a URL that grants read access to key until ttl elapses
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
