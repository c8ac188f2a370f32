package imageproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	maxRedirects = 5
	maxBodyBytes = 32 << 20
)

// Fetcher downloads an image from a URL and decodes it into an in-memory
// raster. Downloads are bounded by the configured timeout, a redirect cap
// and a body size cap.
type Fetcher struct {
	client *http.Client
}

// NewFetcher builds a Fetcher whose requests time out after the given
// duration.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Fetch downloads and decodes the image at url. Failures come back with a
// human-readable reason: timeout, network error, HTTP status, or an
// undecodable payload.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyFetchError(url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, classifyFetchError(url, err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("fetch %s: response exceeds %d bytes", url, maxBodyBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image from %s: %w", url, err)
	}
	return img, nil
}

func classifyFetchError(url string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("fetch %s: timed out: %w", url, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("fetch %s: timed out: %w", url, err)
	default:
		return fmt.Errorf("fetch %s: network error: %w", url, err)
	}
}
