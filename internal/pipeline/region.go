package pipeline

import (
	"image"
)

// Region is an axis-aligned box proposed by a Detector, in pixels relative to
// the top-left corner of the image.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RegionFromRect converts an image rectangle into a Region.
func RegionFromRect(r image.Rectangle) Region {
	r = r.Canon()
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Padded grows the region by pad pixels on every side and clips it to
// bounds. The result may be empty if the region lies outside bounds.
func (r Region) Padded(pad int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(r.X-pad, r.Y-pad, r.X+r.Width+pad, r.Y+r.Height+pad).Intersect(bounds)
}

// Bounds is a box in image coordinates: (X1,Y1) inclusive, (X2,Y2) exclusive.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// BoundsFromRect converts an image rectangle into Bounds.
func BoundsFromRect(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}
