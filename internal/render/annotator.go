package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Default annotation style: a blue box with green text, 10 pixels above.
const (
	DefaultBoxColor   = "#0000FF"
	DefaultTextColor  = "#00FF00"
	DefaultThickness  = 2
	DefaultTextOffset = 10
)

// Annotator draws region boxes and plate labels. It implements
// pipeline.Renderer.
type Annotator struct {
	BoxColor   color.Color
	TextColor  color.Color
	Thickness  int
	TextOffset int
	Face       font.Face
}

// NewAnnotator parses the two hex colors and returns an Annotator with the
// default thickness, offset and font.
func NewAnnotator(boxHex, textHex string) (*Annotator, error) {
	box, err := parseColor(boxHex)
	if err != nil {
		return nil, errors.Wrap(err, "box color")
	}
	text, err := parseColor(textHex)
	if err != nil {
		return nil, errors.Wrap(err, "text color")
	}

	return &Annotator{
		BoxColor:   box,
		TextColor:  text,
		Thickness:  DefaultThickness,
		TextOffset: DefaultTextOffset,
		Face:       basicfont.Face7x13,
	}, nil
}

// DefaultAnnotator returns an Annotator with the default colors.
func DefaultAnnotator() *Annotator {
	a, _ := NewAnnotator(DefaultBoxColor, DefaultTextColor)
	return a
}

func parseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Annotate outlines box on dst and, when text is non-empty, writes it with
// its baseline TextOffset pixels above the top-left corner. Drawing is clipped
// to dst.
func (a *Annotator) Annotate(dst draw.Image, box image.Rectangle, text string) {
	drawRect(dst, box, a.BoxColor, a.Thickness)
	if text == "" {
		return
	}

	face := a.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(a.TextColor),
		Face: face,
		Dot:  fixed.P(box.Min.X, box.Min.Y-a.TextOffset),
	}
	d.DrawString(text)
}

// drawRect draws a rectangle outline that grows inward from r's edges.
func drawRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	src := image.NewUniform(c)
	clip := dst.Bounds()

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), // top
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), // left
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		e = e.Intersect(r).Intersect(clip)
		if e.Empty() {
			continue
		}
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "save annotated image %s", path)
	}
	return nil
}
