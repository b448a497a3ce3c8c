//go:build cgo && !noopencv

package vision

import (
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-recognizer/internal/pipeline"
)

// Available reports whether the OpenCV backends were compiled in.
const Available = true

// CascadeDetector finds plates with a Haar cascade classifier.
//
// A loaded classifier is not safe for concurrent detection, so calls are
// serialized.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	closed     bool
}

// NewCascadeDetector loads the classifier stored at path.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(ErrCascadeLoad, "%s: %v", path, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, errors.Wrapf(ErrCascadeLoad, "%s: not a cascade classifier", path)
	}

	return &CascadeDetector{classifier: classifier}, nil
}

// Detect runs multi-scale detection over gray. The maximum object size is
// unbounded.
func (d *CascadeDetector) Detect(gray *image.Gray, params pipeline.DetectParams) ([]pipeline.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errors.New("cascade detector is closed")
	}

	mat, err := grayToMat(gray)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	rects := d.classifier.DetectMultiScaleWithParams(mat,
		params.ScaleFactor, params.MinNeighbors, 0,
		params.MinSize, image.Point{})

	regions := make([]pipeline.Region, 0, len(rects))
	for _, r := range rects {
		regions = append(regions, pipeline.RegionFromRect(r))
	}
	return regions, nil
}

// Close releases the native classifier. It is safe to call more than once.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
