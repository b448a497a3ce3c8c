//go:build cgo && !noopencv

package vision

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-recognizer/internal/imaging"
)

// grayToMat copies a grayscale image into a single-channel Mat.
// The caller must close the returned Mat.
func grayToMat(gray *image.Gray) (gocv.Mat, error) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	// NewMatFromBytes needs tightly packed rows.
	pix := gray.Pix
	if gray.Stride != w {
		pix = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(pix[y*w:(y+1)*w], gray.Pix[y*gray.Stride:y*gray.Stride+w])
		}
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, pix)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "create gray mat")
	}
	return mat, nil
}

// imageToBGR converts any image into a 3-channel BGR Mat, OpenCV's native
// layout. The caller must close the returned Mat.
func imageToBGR(img image.Image) (gocv.Mat, error) {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()

	rgba, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, nrgba.Pix)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "create rgba mat")
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// matToGray copies a single-channel 8-bit Mat into a new image.Gray.
func matToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Channels() != 1 {
		return nil, errors.Errorf("expected 1 channel, got %d", mat.Channels())
	}

	w, h := mat.Cols(), mat.Rows()
	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "read mat data")
	}
	if len(data) < w*h {
		return nil, errors.Errorf("mat holds %d bytes, need %d", len(data), w*h)
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	copy(gray.Pix, data[:w*h])
	return gray, nil
}
