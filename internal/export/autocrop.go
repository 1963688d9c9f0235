package export

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/example/cropmask/internal/viewport"
)

// whiteCutoff is the per-channel level above which a pixel counts as
// background.
const whiteCutoff = 0xf0

// AutoCrop finds the bounding box of content: pixels that are neither
// near white nor transparent. The box is grown by padding and clamped to
// the image. ok is false when the image holds no content.
//
// Callers must gate this behind an explicit opt-in; it is never applied
// implicitly.
func AutoCrop(img image.Image, padding int) (r image.Rectangle, ok bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isContent(img.At(x, y)) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	r = image.Rect(minX-padding, minY-padding, maxX+1+padding, maxY+1+padding)
	return r.Intersect(b), true
}

func isContent(c color.Color) bool {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0 {
		return false
	}
	return n.R < whiteCutoff || n.G < whiteCutoff || n.B < whiteCutoff
}

// Trim crops a mask export to its content. It reports false and returns
// res untouched when there is nothing to trim.
func Trim(res Result, t viewport.Transform, padding int) (Result, bool) {
	r, ok := AutoCrop(res.Image, padding)
	if !ok || r == res.Image.Bounds() {
		return res, false
	}
	rel := r.Sub(res.Image.Bounds().Min)
	return Result{Image: imaging.Crop(res.Image, r), CropRect: displayBox(t, rel)}, true
}
