//go:build cgo && !noopencv

package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-recognizer/internal/preprocess"
)

// Preprocessor denoises and equalizes plate crops with OpenCV.
type Preprocessor struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// NewPreprocessor returns a Preprocessor using the same defaults as the
// pure-Go preprocessor.
func NewPreprocessor() (*Preprocessor, error) {
	return &Preprocessor{
		Diameter:   preprocess.DefaultDiameter,
		SigmaColor: preprocess.DefaultSigmaColor,
		SigmaSpace: preprocess.DefaultSigmaSpace,
	}, nil
}

// Preprocess converts img to grayscale, applies the bilateral filter and
// equalizes the histogram.
func (p *Preprocessor) Preprocess(img image.Image) (*image.Gray, error) {
	bgr, err := imageToBGR(img)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	filtered := gocv.NewMat()
	defer filtered.Close()
	gocv.BilateralFilter(gray, &filtered, p.Diameter, p.SigmaColor, p.SigmaSpace)

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(filtered, &equalized)

	return matToGray(equalized)
}
