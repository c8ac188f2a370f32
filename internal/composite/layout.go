package composite

import (
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"server/internal/domain"
)

// Canvas dimensions are fixed for the engine; placement rectangles are
// expressed in this coordinate space and clients rely on it.
const (
	CanvasWidth  = 600
	CanvasHeight = 800
)

// Target box sizes per column.
const (
	leftBoxWidth   = 200
	leftBoxHeight  = 300
	rightBoxWidth  = 180
	rightBoxHeight = 270
)

// Column centers: left column at width/4, right column at width*3/4. A
// region's x is its column center minus half its box width.
const (
	leftColumnX  = CanvasWidth/4 - leftBoxWidth/2
	rightColumnX = CanvasWidth*3/4 - rightBoxWidth/2
)

// regions maps each category to its fixed target box. The table is part of
// the layout contract: TOP and BOTTOM stack in the left column, OUTER,
// ACCESSORY and SHOES in the right.
var regions = map[domain.Category]domain.Rectangle{
	domain.CategoryTop:       {X: leftColumnX, Y: 60, Width: leftBoxWidth, Height: leftBoxHeight},
	domain.CategoryBottom:    {X: leftColumnX, Y: 440, Width: leftBoxWidth, Height: leftBoxHeight},
	domain.CategoryOuter:     {X: rightColumnX, Y: 20, Width: rightBoxWidth, Height: rightBoxHeight},
	domain.CategoryAccessory: {X: rightColumnX, Y: 265, Width: rightBoxWidth, Height: rightBoxHeight},
	domain.CategoryShoes:     {X: rightColumnX, Y: 510, Width: rightBoxWidth, Height: rightBoxHeight},
}

// RegionFor returns the target box for a category. Unrecognized categories
// share the accessory slot.
func RegionFor(category domain.Category) domain.Rectangle {
	if box, ok := regions[category]; ok {
		return box
	}
	return regions[domain.CategoryAccessory]
}

// fitInside scales img to fit entirely within a box of the given dimensions,
// preserving aspect ratio, and centers it on a transparent box-sized canvas.
// The binding axis is chosen by comparing aspect ratios, so the output is
// always exactly boxW×boxH regardless of the source shape.
func fitInside(img image.Image, boxW, boxH int) *image.NRGBA {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	var newW, newH int
	if srcW*boxH >= srcH*boxW {
		// Wider than the box: width binds.
		newW = boxW
		newH = srcH * boxW / srcW
	} else {
		// Taller than the box: height binds.
		newH = boxH
		newW = srcW * boxH / srcH
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	scaled := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)

	dst := image.NewNRGBA(image.Rect(0, 0, boxW, boxH))
	offset := image.Pt((boxW-newW)/2, (boxH-newH)/2)
	draw.Draw(dst, scaled.Bounds().Add(offset), scaled, scaled.Bounds().Min, draw.Over)
	return dst
}
