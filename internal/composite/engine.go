package composite

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"server/internal/domain"
	"server/internal/imageproc"
	"server/internal/storage"
)

// Engine renders a set of background-removed item images onto a single
// canvas with a fixed 2-column layout and uploads the result.
type Engine struct {
	store   storage.ObjectStore
	fetcher *imageproc.Fetcher
	prefix  string
	logger  zerolog.Logger
}

// NewEngine builds an Engine that uploads composites under prefix.
func NewEngine(store storage.ObjectStore, fetcher *imageproc.Fetcher, prefix string, logger zerolog.Logger) *Engine {
	return &Engine{store: store, fetcher: fetcher, prefix: prefix, logger: logger}
}

// Compose validates the items, fetches their background-removed images,
// lays them out by category and uploads the rendered canvas. Items whose
// image cannot be fetched are dropped with a warning; the call fails only
// when validation fails or every fetch fails.
func (e *Engine) Compose(ctx context.Context, items []domain.CompositeItem) (*domain.CompositeResult, error) {
	if len(items) == 0 {
		return nil, domain.ErrNoItems
	}
	if err := validateCategories(items); err != nil {
		return nil, err
	}

	fetched := e.fetchAll(ctx, items)
	if len(fetched) == 0 {
		return nil, domain.ErrAllItemsFailed
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))

	var placed []domain.PlacedItem
	totalPrice := 0
	// Walk categories in their fixed order so the render never depends on
	// request ordering.
	for _, category := range domain.Categories {
		entry, ok := fetched[category]
		if !ok {
			continue
		}
		box := RegionFor(category)
		tile := fitInside(entry.img, box.Width, box.Height)
		draw.Draw(canvas, tile.Bounds().Add(image.Pt(box.X, box.Y)), tile, tile.Bounds().Min, draw.Over)

		placed = append(placed, domain.PlacedItem{
			ProductID: entry.item.ProductID,
			Category:  entry.item.Category,
			Name:      entry.item.Name,
			Brand:     entry.item.Brand,
			Price:     entry.item.Price,
			LinkURL:   entry.item.LinkURL,
			Position:  box,
		})
		totalPrice += entry.item.Price
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode composite: %w", err)
	}

	key := fmt.Sprintf("%s/%s.png", e.prefix, uuid.NewString())
	if err := e.store.Put(ctx, key, buf.Bytes(), "image/png"); err != nil {
		return nil, fmt.Errorf("upload composite: %w", err)
	}

	return &domain.CompositeResult{
		CompositeURL: e.store.PublicURL(key),
		ImageWidth:   CanvasWidth,
		ImageHeight:  CanvasHeight,
		Items:        placed,
		TotalPrice:   totalPrice,
	}, nil
}

type fetchedItem struct {
	item domain.CompositeItem
	img  image.Image
}

// fetchAll downloads every item's background-removed image concurrently and
// keys the survivors by their normalized category. Unknown categories land
// in the accessory slot.
func (e *Engine) fetchAll(ctx context.Context, items []domain.CompositeItem) map[domain.Category]fetchedItem {
	var mu sync.Mutex
	fetched := make(map[domain.Category]fetchedItem, len(items))

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := e.fetcher.Fetch(ctx, item.NoBGImageURL)
			if err != nil {
				e.logger.Warn().Err(err).Str("product_id", item.ProductID).Msg("dropping item, image fetch failed")
				return
			}
			category := domain.NormalizeCategory(string(item.Category))
			if !category.Valid() {
				category = domain.CategoryAccessory
			}
			mu.Lock()
			fetched[category] = fetchedItem{item: item, img: img}
			mu.Unlock()
		}()
	}
	wg.Wait()
	return fetched
}

// validateCategories rejects duplicate categories before any I/O happens.
// Comparison is case-insensitive, and unknown categories count as accessories
// since that is the slot they render into.
func validateCategories(items []domain.CompositeItem) error {
	seen := make(map[domain.Category]struct{}, len(items))
	for _, item := range items {
		category := domain.NormalizeCategory(string(item.Category))
		if !category.Valid() {
			category = domain.CategoryAccessory
		}
		if _, dup := seen[category]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCategory, category)
		}
		seen[category] = struct{}{}
	}
	return nil
}
