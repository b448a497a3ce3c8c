//go:build !cgo || noopencv

package vision

import (
	"image"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-recognizer/internal/pipeline"
)

// Available reports whether the OpenCV backends were compiled in.
const Available = false

// CascadeDetector is not available in this build.
type CascadeDetector struct{}

// NewCascadeDetector always fails with ErrCascadeLoad wrapping
// ErrUnavailable.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	return nil, errors.Wrapf(ErrCascadeLoad, "%s: %v", path, ErrUnavailable)
}

// Detect implements pipeline.Detector.
func (d *CascadeDetector) Detect(gray *image.Gray, params pipeline.DetectParams) ([]pipeline.Region, error) {
	return nil, ErrUnavailable
}

// Close implements io.Closer.
func (d *CascadeDetector) Close() error {
	return nil
}

// Preprocessor is not available in this build.
type Preprocessor struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// NewPreprocessor always fails with ErrUnavailable.
func NewPreprocessor() (*Preprocessor, error) {
	return nil, ErrUnavailable
}

// Preprocess implements pipeline.Preprocessor.
func (p *Preprocessor) Preprocess(img image.Image) (*image.Gray, error) {
	return nil, ErrUnavailable
}
