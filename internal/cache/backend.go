// Package cache implements the two-tier rendered-image cache: a bounded
// in-process memory tier in front of a pluggable durable backend.
package cache

import "context"

// Backend is a durable store for rendered images, addressed by keys of the
// form <fingerprint>.<ext>. Implementations: local filesystem, Azure blob
// storage, redis.
type Backend interface {
	Name() string

	// Init prepares the backend (directory or container creation, connection
	// checks). Called exactly once per process, before any other operation.
	Init(ctx context.Context) error

	// Get returns the stored bytes and content type, ok=false on a clean miss.
	Get(ctx context.Context, key string) (data []byte, contentType string, ok bool, err error)

	Put(ctx context.Context, key string, data []byte, contentType string) error

	Delete(ctx context.Context, key string) error
}

// contentTypeFor derives the media type from a storage key extension, for
// backends that do not persist a content-type attribute.
func contentTypeFor(key string) string {
	if len(key) >= 4 && key[len(key)-4:] == ".png" {
		return "image/png"
	}
	return "image/svg+xml"
}
