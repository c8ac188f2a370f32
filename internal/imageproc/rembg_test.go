package imageproc

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPRemoverRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("missing image part: %v", err)
		}
		defer func() { _ = file.Close() }()
		src, err := png.Decode(file)
		if err != nil {
			t.Fatalf("decode uploaded image: %v", err)
		}

		// Answer with a same-sized fully transparent PNG.
		out := image.NewNRGBA(src.Bounds())
		for y := out.Bounds().Min.Y; y < out.Bounds().Max.Y; y++ {
			for x := out.Bounds().Min.X; x < out.Bounds().Max.X; x++ {
				out.Set(x, y, color.NRGBA{})
			}
		}
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, out)
	}))
	defer ts.Close()

	remover := NewHTTPRemover(ts.URL, 5*time.Second)
	src := image.NewNRGBA(image.Rect(0, 0, 12, 9))
	out, err := remover.Remove(context.Background(), src)
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds mismatch: got %v want %v", out.Bounds(), src.Bounds())
	}
}

func TestHTTPRemoverServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	remover := NewHTTPRemover(ts.URL, 5*time.Second)
	if _, err := remover.Remove(context.Background(), image.NewNRGBA(image.Rect(0, 0, 4, 4))); err == nil {
		t.Fatalf("expected error for 503 response")
	}
}
