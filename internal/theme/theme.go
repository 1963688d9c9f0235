package theme

import (
	"embed"
	"image/color"
)

// EmbeddedThemes holds the palettes shipped with the binary.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Theme defines the overlay palette used while editing. Colors are
// non-premultiplied so translucent tints can be written as plain hex.
type Theme struct {
	Name string

	// Backdrop
	Background   color.NRGBA // Window area outside the image
	CheckerLight color.NRGBA // Transparency checkerboard
	CheckerDark  color.NRGBA

	// Polygon and marquee
	PolygonStroke color.NRGBA
	PolygonFill   color.NRGBA // Closed polygon interior
	MarqueeStroke color.NRGBA // Dashed in-progress marquee and selection
	VertexFill    color.NRGBA
	VertexOutline color.NRGBA
	VertexActive  color.NRGBA // Vertex under the pointer while dragging

	// Freehand
	EraseTint color.NRGBA
	PaintTint color.NRGBA
}

// Default returns the hardcoded palette used when no theme is found.
func Default() *Theme {
	return &Theme{
		Name:          "Default",
		Background:    color.NRGBA{48, 48, 48, 255},
		CheckerLight:  color.NRGBA{220, 220, 220, 255},
		CheckerDark:   color.NRGBA{192, 192, 192, 255},
		PolygonStroke: color.NRGBA{0, 160, 255, 255},
		PolygonFill:   color.NRGBA{0, 160, 255, 40},
		MarqueeStroke: color.NRGBA{255, 255, 255, 230},
		VertexFill:    color.NRGBA{0, 160, 255, 255},
		VertexOutline: color.NRGBA{255, 255, 255, 255},
		VertexActive:  color.NRGBA{255, 200, 0, 255},
		EraseTint:     color.NRGBA{255, 64, 64, 96},
		PaintTint:     color.NRGBA{64, 200, 64, 128},
	}
}
