package imageproc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Remover turns a raster image into one whose background pixels are
// transparent.
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// HTTPRemover delegates background removal to an external matting service.
// The image is posted PNG-encoded as a multipart upload; the service answers
// with a PNG carrying an alpha channel.
type HTTPRemover struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRemover points at a matting service endpoint.
func NewHTTPRemover(endpoint string, timeout time.Duration) *HTTPRemover {
	return &HTTPRemover{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "input.png")
	if err != nil {
		return nil, fmt.Errorf("rembg: create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("rembg: encode input: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("rembg: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("rembg: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rembg: call service: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rembg: service returned status %d", resp.StatusCode)
	}

	out, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rembg: decode output: %w", err)
	}
	return out, nil
}

// PassthroughRemover returns the input unchanged. Useful in development when
// no matting service is reachable, and in tests.
type PassthroughRemover struct{}

func (PassthroughRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	return img, nil
}

var (
	_ Remover = (*HTTPRemover)(nil)
	_ Remover = PassthroughRemover{}
)
