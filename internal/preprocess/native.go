// Package preprocess prepares plate crops for OCR without native dependencies.
//
// The Native preprocessor converts to intensity, smooths with an
// edge-preserving bilateral filter and equalizes the histogram. Its defaults
// match the OpenCV call bilateralFilter(src, 9, 75, 75) followed by
// equalizeHist, so it can stand in for the OpenCV-backed preprocessor in
// package vision.
package preprocess

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"

	"github.com/ironsheep/plate-recognizer/internal/imaging"
)

// Default bilateral filter parameters.
const (
	DefaultDiameter   = 9
	DefaultSigmaColor = 75.0
	DefaultSigmaSpace = 75.0
)

// Native is a pure-Go RegionPreprocessor.
type Native struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// NewNative returns a Native preprocessor with the default parameters.
func NewNative() *Native {
	return &Native{
		Diameter:   DefaultDiameter,
		SigmaColor: DefaultSigmaColor,
		SigmaSpace: DefaultSigmaSpace,
	}
}

// Preprocess returns a denoised, contrast-equalized grayscale copy of img with
// the same dimensions. It never fails.
func (n *Native) Preprocess(img image.Image) (*image.Gray, error) {
	gray := imaging.Intensity(img)
	smoothed := BilateralFilter(gray, n.Diameter, n.SigmaColor, n.SigmaSpace)
	return EqualizeHistogram(smoothed), nil
}

// BilateralFilter smooths src while keeping strong edges.
//
// Each output pixel is a weighted mean over a circular neighbourhood of the
// given diameter; weights fall off with both spatial distance (sigmaSpace) and
// intensity difference (sigmaColor). Pixels beyond the border are replicated.
// A diameter below 1 is derived from sigmaSpace as OpenCV does.
func BilateralFilter(src *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := diameter / 2
	if diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	if radius < 1 {
		radius = 1
	}

	type tap struct {
		dx, dy int
		weight float64
	}
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	taps := make([]tap, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx, dy, math.Exp(r2 * spaceCoeff)})
		}
	}

	var colorWeight [256]float64
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	at := func(x, y int) uint8 {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return src.Pix[y*src.Stride+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := int(at(x, y))
			var sum, norm float64
			for _, t := range taps {
				v := int(at(x+t.dx, y+t.dy))
				diff := v - center
				if diff < 0 {
					diff = -diff
				}
				wgt := t.weight * colorWeight[diff]
				sum += wgt * float64(v)
				norm += wgt
			}
			dst.Pix[y*dst.Stride+x] = uint8(clamp(int(math.Round(sum/norm)), 0, 255))
		}
	}

	return dst
}

// EqualizeHistogram spreads the intensity histogram of src over 0-255.
//
// The mapping follows OpenCV's equalizeHist: the darkest occupied level maps to
// 0 and the cumulative distribution of the remaining levels is scaled to 255.
// A single-level image is returned unchanged.
func EqualizeHistogram(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	total := w * h
	if total == 0 {
		return dst
	}

	bins := histogram.NewRGBAHistogram(src).R.Bins

	first := 0
	for first < len(bins) && bins[first] == 0 {
		first++
	}

	var lut [256]uint8
	if bins[first] == total {
		for i := range lut {
			lut[i] = uint8(first)
		}
	} else {
		scale := 255.0 / float64(total-bins[first])
		sum := 0
		for i := first + 1; i < 256; i++ {
			sum += bins[i]
			lut[i] = uint8(clamp(int(math.Round(float64(sum)*scale)), 0, 255))
		}
	}

	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x, v := range srcRow {
			dstRow[x] = lut[v]
		}
	}

	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
