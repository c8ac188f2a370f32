package domain

import "strings"

// Category enumerates the clothing slots a composite can hold.
type Category string

const (
	CategoryTop       Category = "TOP"
	CategoryBottom    Category = "BOTTOM"
	CategoryOuter     Category = "OUTER"
	CategoryShoes     Category = "SHOES"
	CategoryAccessory Category = "ACCESSORY"
)

// Categories lists every valid category in the order items are composited.
// The order is fixed so that layout and rendering never depend on request
// ordering.
var Categories = []Category{
	CategoryTop,
	CategoryBottom,
	CategoryOuter,
	CategoryAccessory,
	CategoryShoes,
}

// NormalizeCategory maps free-form input onto a Category. Matching is
// case-insensitive; unknown values are returned as-is so the caller can
// decide whether to reject them or fall back.
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return known
		}
	}
	return c
}

// Valid reports whether the category is one of the five known slots.
func (c Category) Valid() bool {
	switch c {
	case CategoryTop, CategoryBottom, CategoryOuter, CategoryShoes, CategoryAccessory:
		return true
	}
	return false
}

// CompositeItem is one product entering a composite. NoBGImageURL must point
// at an already background-removed image; the engine does not run removal.
type CompositeItem struct {
	ProductID    string
	Category     Category
	Name         string
	Brand        string
	Price        int
	ImageURL     string
	LinkURL      string
	NoBGImageURL string
}

// Rectangle is a placement box in canvas pixel coordinates, top-left origin.
type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PlacedItem carries an item's identifying fields plus where it landed on
// the canvas.
type PlacedItem struct {
	ProductID string    `json:"product_id"`
	Category  Category  `json:"category"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Price     int       `json:"price"`
	LinkURL   string    `json:"link_url"`
	Position  Rectangle `json:"position"`
}

// CompositeResult is the rendered outfit canvas plus per-item placement
// metadata. TotalPrice sums only the items that made it onto the canvas.
type CompositeResult struct {
	CompositeURL string       `json:"composite_url"`
	ImageWidth   int          `json:"image_width"`
	ImageHeight  int          `json:"image_height"`
	Items        []PlacedItem `json:"items"`
	TotalPrice   int          `json:"total_price"`
}
