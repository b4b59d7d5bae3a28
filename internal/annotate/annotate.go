// Package annotate renders detection overlays and persists alert
// snapshots.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/retailx/theft-monitor/pkg/types"
)

const boxThickness = 2

var (
	alarmColor  = color.RGBA{R: 255, A: 255} // product_concealed
	normalColor = color.RGBA{G: 255, A: 255} // everything else
)

// Render draws one rectangle and label per detection onto a copy of the
// frame. The input image is never modified.
func Render(src image.Image, detections []types.Detection) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	for _, d := range detections {
		col := normalColor
		if d.Class == types.ClassProductConcealed {
			col = alarmColor
		}
		drawRect(dst, d.BBox, col)

		labelY := d.BBox.Y1 - 6
		if labelY < 10 {
			labelY = 10
		}
		label := fmt.Sprintf("%s %.2f", d.Class, d.Confidence)
		drawLabel(dst, d.BBox.X1, labelY, label, col)
	}

	return dst
}

// Banner draws the alert headline in the alarm color at the top left.
func Banner(dst *image.RGBA, text string) {
	drawLabel(dst, 10, 30, text, alarmColor)
}

// drawRect draws a hollow rectangle clipped to the image bounds.
func drawRect(dst *image.RGBA, b types.BoundingBox, col color.RGBA) {
	fill := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(b.X1, b.Y1, b.X2, b.Y1+boxThickness), // top
		image.Rect(b.X1, b.Y2-boxThickness, b.X2, b.Y2), // bottom
		image.Rect(b.X1, b.Y1, b.X1+boxThickness, b.Y2), // left
		image.Rect(b.X2-boxThickness, b.Y1, b.X2, b.Y2), // right
	}
	for _, edge := range edges {
		draw.Draw(dst, edge.Intersect(dst.Bounds()), fill, image.Point{}, draw.Src)
	}
}

// drawLabel renders text with the fixed 7x13 face; y is the baseline.
func drawLabel(dst *image.RGBA, x, y int, text string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
