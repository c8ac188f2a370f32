package storage

import "context"

// ObjectStore is the narrow blob-store contract the image pipeline depends
// on. Keys are slash-separated relative paths; PublicURL derives the
// browser-reachable URL for a key without touching the network.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}
