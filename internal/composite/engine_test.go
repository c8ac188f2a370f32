package composite

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/domain"
	"server/internal/imageproc"
	"server/internal/storage"
)

type captureStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newCaptureStore() *captureStore {
	return &captureStore{objects: make(map[string][]byte)}
}

func (s *captureStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *captureStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *captureStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (s *captureStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

var _ storage.ObjectStore = (*captureStore)(nil)

func servePNG(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if strings.Contains(r.URL.Path, "broken") {
			http.NotFound(w, r)
			return
		}
		img := image.NewNRGBA(image.Rect(0, 0, 120, 160))
		for y := 0; y < 160; y++ {
			for x := 0; x < 120; x++ {
				img.Set(x, y, color.NRGBA{R: 30, G: 30, B: 200, A: 255})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newEngine(store storage.ObjectStore) *Engine {
	return NewEngine(store, imageproc.NewFetcher(5*time.Second), "composites", zerolog.Nop())
}

func item(category domain.Category, productID string, price int, url string) domain.CompositeItem {
	return domain.CompositeItem{
		ProductID:    productID,
		Category:     category,
		Name:         string(category) + " item",
		Brand:        "testbrand",
		Price:        price,
		LinkURL:      "https://shop.test/" + productID,
		NoBGImageURL: url,
	}
}

func TestComposeTwoItems(t *testing.T) {
	ts := servePNG(t, nil)
	store := newCaptureStore()
	engine := newEngine(store)

	result, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryTop, "p-1", 50000, ts.URL+"/top.png"),
		item(domain.CategoryShoes, "p-2", 100000, ts.URL+"/shoes.png"),
	})
	require.NoError(t, err)

	assert.Equal(t, CanvasWidth, result.ImageWidth)
	assert.Equal(t, CanvasHeight, result.ImageHeight)
	assert.Equal(t, 150000, result.TotalPrice)
	require.Len(t, result.Items, 2)

	top := result.Items[0]
	assert.Equal(t, domain.CategoryTop, top.Category)
	assert.Equal(t, domain.Rectangle{X: 50, Y: 60, Width: 200, Height: 300}, top.Position)

	shoes := result.Items[1]
	assert.Equal(t, domain.CategoryShoes, shoes.Category)
	assert.Equal(t, domain.Rectangle{X: 360, Y: 510, Width: 180, Height: 270}, shoes.Position)

	keys := store.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "composites/"))
	assert.True(t, strings.HasSuffix(keys[0], ".png"))
	assert.Equal(t, "https://cdn.test/"+keys[0], result.CompositeURL)

	// The stored object decodes back to a canvas-sized PNG.
	img, err := png.Decode(bytes.NewReader(store.objects[keys[0]]))
	require.NoError(t, err)
	assert.Equal(t, CanvasWidth, img.Bounds().Dx())
	assert.Equal(t, CanvasHeight, img.Bounds().Dy())
}

func TestComposePlacementIgnoresInputOrder(t *testing.T) {
	ts := servePNG(t, nil)
	store := newCaptureStore()
	engine := newEngine(store)

	forward, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryTop, "p-1", 1000, ts.URL+"/a.png"),
		item(domain.CategoryShoes, "p-2", 2000, ts.URL+"/b.png"),
		item(domain.CategoryOuter, "p-3", 3000, ts.URL+"/c.png"),
	})
	require.NoError(t, err)

	reversed, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryOuter, "p-3", 3000, ts.URL+"/c.png"),
		item(domain.CategoryShoes, "p-2", 2000, ts.URL+"/b.png"),
		item(domain.CategoryTop, "p-1", 1000, ts.URL+"/a.png"),
	})
	require.NoError(t, err)

	require.Equal(t, len(forward.Items), len(reversed.Items))
	for i := range forward.Items {
		assert.Equal(t, forward.Items[i].Category, reversed.Items[i].Category)
		assert.Equal(t, forward.Items[i].Position, reversed.Items[i].Position)
	}
}

func TestComposeDuplicateCategoryFailsBeforeFetch(t *testing.T) {
	var hits atomic.Int64
	ts := servePNG(t, &hits)
	engine := newEngine(newCaptureStore())

	_, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryTop, "p-1", 1000, ts.URL+"/a.png"),
		item("top", "p-2", 2000, ts.URL+"/b.png"),
	})
	require.ErrorIs(t, err, domain.ErrDuplicateCategory)
	assert.Zero(t, hits.Load(), "validation must reject before any fetch")
}

func TestComposeUnknownCategoryCollidesWithAccessory(t *testing.T) {
	var hits atomic.Int64
	ts := servePNG(t, &hits)
	engine := newEngine(newCaptureStore())

	// An unrecognized category renders into the accessory slot, so pairing
	// it with a real accessory is a duplicate and must fail before any I/O
	// rather than leave one of the two items winning a race.
	_, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryAccessory, "p-acc", 10000, ts.URL+"/acc.png"),
		item("hat", "p-hat", 99000, ts.URL+"/hat.png"),
	})
	require.ErrorIs(t, err, domain.ErrDuplicateCategory)
	assert.Zero(t, hits.Load(), "validation must reject before any fetch")
}

func TestComposeUnknownCategoryRendersInAccessorySlot(t *testing.T) {
	ts := servePNG(t, nil)
	engine := newEngine(newCaptureStore())

	result, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryTop, "p-1", 1000, ts.URL+"/a.png"),
		item("hat", "p-hat", 2000, ts.URL+"/hat.png"),
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 3000, result.TotalPrice)
	assert.Equal(t, RegionFor(domain.CategoryAccessory), result.Items[1].Position)
}

func TestComposeDropsUnfetchableItems(t *testing.T) {
	ts := servePNG(t, nil)
	engine := newEngine(newCaptureStore())

	result, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryTop, "p-1", 50000, ts.URL+"/top.png"),
		item(domain.CategoryShoes, "p-2", 100000, ts.URL+"/broken.png"),
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, domain.CategoryTop, result.Items[0].Category)
	assert.Equal(t, 50000, result.TotalPrice, "dropped items must not contribute to the total")
}

func TestComposeAllFetchesFailed(t *testing.T) {
	ts := servePNG(t, nil)
	engine := newEngine(newCaptureStore())

	_, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryTop, "p-1", 1000, ts.URL+"/broken-a.png"),
		item(domain.CategoryShoes, "p-2", 2000, ts.URL+"/broken-b.png"),
	})
	require.ErrorIs(t, err, domain.ErrAllItemsFailed)
}

func TestComposeEmptyItems(t *testing.T) {
	engine := newEngine(newCaptureStore())
	_, err := engine.Compose(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNoItems)
}

func TestComposeAllCategoriesGetDistinctBoxes(t *testing.T) {
	ts := servePNG(t, nil)
	engine := newEngine(newCaptureStore())

	items := make([]domain.CompositeItem, 0, len(domain.Categories))
	for i, category := range domain.Categories {
		items = append(items, item(category, "p-"+string(rune('a'+i)), 1000, ts.URL+"/img.png"))
	}

	result, err := engine.Compose(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, result.Items, len(domain.Categories))
	assert.Equal(t, 5000, result.TotalPrice)

	seen := make(map[domain.Rectangle]struct{})
	for _, placed := range result.Items {
		assert.Equal(t, RegionFor(placed.Category), placed.Position)
		seen[placed.Position] = struct{}{}
	}
	assert.Len(t, seen, len(domain.Categories))
}

func TestComposeUploadFailure(t *testing.T) {
	ts := servePNG(t, nil)
	engine := NewEngine(failingStore{}, imageproc.NewFetcher(5*time.Second), "composites", zerolog.Nop())

	_, err := engine.Compose(context.Background(), []domain.CompositeItem{
		item(domain.CategoryTop, "p-1", 1000, ts.URL+"/a.png"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload composite")
}

type failingStore struct{}

func (failingStore) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (failingStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return errors.New("bucket unavailable")
}
func (failingStore) PublicURL(key string) string { return "" }
