package vision

import "github.com/pkg/errors"

var (
	// ErrCascadeLoad is returned when a cascade classifier file is missing
	// or cannot be parsed.
	ErrCascadeLoad = errors.New("cascade classifier could not be loaded")

	// ErrUnavailable is returned by every constructor in builds without
	// OpenCV.
	ErrUnavailable = errors.New("built without OpenCV support")
)
