package composite

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/domain"
)

func TestRegionTable(t *testing.T) {
	top := RegionFor(domain.CategoryTop)
	assert.Equal(t, domain.Rectangle{X: 50, Y: 60, Width: 200, Height: 300}, top)
	assert.Equal(t, CanvasWidth/4-top.Width/2, top.X)

	bottom := RegionFor(domain.CategoryBottom)
	assert.Equal(t, 200, bottom.Width)
	assert.Equal(t, 300, bottom.Height)
	assert.Equal(t, top.X, bottom.X)
	assert.Greater(t, bottom.Y, top.Y)

	shoes := RegionFor(domain.CategoryShoes)
	assert.Equal(t, domain.Rectangle{X: 360, Y: 510, Width: 180, Height: 270}, shoes)
	assert.Equal(t, CanvasWidth*3/4-shoes.Width/2, shoes.X)

	outer := RegionFor(domain.CategoryOuter)
	accessory := RegionFor(domain.CategoryAccessory)
	assert.Equal(t, shoes.X, outer.X)
	assert.Equal(t, shoes.X, accessory.X)
	assert.Less(t, outer.Y, accessory.Y)
	assert.Less(t, accessory.Y, shoes.Y)
}

func TestRegionForUnknownCategoryFallsBackToAccessory(t *testing.T) {
	assert.Equal(t, RegionFor(domain.CategoryAccessory), RegionFor(domain.Category("HAT")))
}

func TestRegionsStayOnCanvas(t *testing.T) {
	for _, category := range domain.Categories {
		box := RegionFor(category)
		assert.GreaterOrEqual(t, box.X, 0)
		assert.GreaterOrEqual(t, box.Y, 0)
		assert.LessOrEqual(t, box.X+box.Width, CanvasWidth)
		assert.LessOrEqual(t, box.Y+box.Height, CanvasHeight)
	}
}

func TestFitInsideWideImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	out := fitInside(src, 200, 300)

	require.Equal(t, 200, out.Bounds().Dx())
	require.Equal(t, 300, out.Bounds().Dy())

	// Width binds: the scaled image is 200x50 centered vertically, so the
	// top rows stay fully transparent.
	_, _, _, a := out.At(100, 10).RGBA()
	assert.Zero(t, a)
}

func TestFitInsideTallImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 400))
	fillOpaque(src)
	out := fitInside(src, 200, 300)

	require.Equal(t, 200, out.Bounds().Dx())
	require.Equal(t, 300, out.Bounds().Dy())

	// Height binds: the scaled image is 75x300 centered horizontally, so
	// the left columns stay fully transparent and the center is opaque.
	_, _, _, edge := out.At(10, 150).RGBA()
	assert.Zero(t, edge)
	_, _, _, center := out.At(100, 150).RGBA()
	assert.NotZero(t, center)
}

func fillOpaque(img *image.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 120
		img.Pix[i+1] = 120
		img.Pix[i+2] = 120
		img.Pix[i+3] = 255
	}
}
