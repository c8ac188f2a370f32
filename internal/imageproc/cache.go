package imageproc

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image/png"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"server/internal/storage"
)

// Cache provides idempotent, deduplicated background removal keyed by a
// deterministic hash of the source URL. Results live in the object store
// under "{prefix}/{md5(url)}.png"; that key format is a durable contract —
// changing it invalidates every existing cache entry.
//
// Two concurrent calls for the same URL may both compute and upload; the
// bytes are deterministic for a given input, so last write wins and both
// callers see the same URL.
type Cache struct {
	store   storage.ObjectStore
	fetcher *Fetcher
	remover Remover
	prefix  string
	logger  zerolog.Logger

	// cpu gates matting and encoding so a burst of batch work cannot
	// starve the network-bound paths.
	cpu *semaphore.Weighted
}

// NewCache wires the fetch/remove/store collaborators together.
func NewCache(store storage.ObjectStore, fetcher *Fetcher, remover Remover, prefix string, logger zerolog.Logger) *Cache {
	return &Cache{
		store:   store,
		fetcher: fetcher,
		remover: remover,
		prefix:  prefix,
		logger:  logger,
		cpu:     semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
}

// CacheKey returns the deterministic object key for a source URL.
func (c *Cache) CacheKey(url string) string {
	sum := md5.Sum([]byte(url))
	return fmt.Sprintf("%s/%s.png", c.prefix, hex.EncodeToString(sum[:]))
}

// RemoveBackground returns the public URL of the background-removed version
// of the image at url, computing and caching it on first sight.
func (c *Cache) RemoveBackground(ctx context.Context, url string) (string, error) {
	key := c.CacheKey(url)

	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check cache for %s: %w", url, err)
	}
	if exists {
		c.logger.Info().Str("url", url).Str("key", key).Msg("background removal cache hit")
		return c.store.PublicURL(key), nil
	}

	c.logger.Info().Str("url", url).Str("key", key).Msg("background removal cache miss, processing")

	img, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := c.cpu.Acquire(ctx, 1); err != nil {
		return "", err
	}
	out, removeErr := c.remover.Remove(ctx, img)
	var buf bytes.Buffer
	var encodeErr error
	if removeErr == nil {
		encodeErr = png.Encode(&buf, out)
	}
	c.cpu.Release(1)
	if removeErr != nil {
		return "", fmt.Errorf("remove background for %s: %w", url, removeErr)
	}
	if encodeErr != nil {
		return "", fmt.Errorf("encode result for %s: %w", url, encodeErr)
	}

	if err := c.store.Put(ctx, key, buf.Bytes(), "image/png"); err != nil {
		return "", fmt.Errorf("upload result for %s: %w", url, err)
	}

	return c.store.PublicURL(key), nil
}
