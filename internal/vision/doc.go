// Package vision holds the OpenCV-backed collaborators of the recognition
// pipeline.
//
// CascadeDetector runs a Haar cascade trained on number plates and
// Preprocessor applies OpenCV's bilateral filter and histogram equalization
// to each crop. Both need OpenCV 4.x and its gocv bindings at build time; the
// pure-Go equivalents live in packages detection and preprocess.
//
// Building with -tags noopencv, or with cgo disabled, swaps in stubs whose
// constructors fail with ErrUnavailable (wrapped in ErrCascadeLoad for the
// detector) and sets Available to false.
//
// # Memory
//
// gocv matrices wrap native memory. Every Mat created here is closed before
// the call returns, and CascadeDetector must be closed when no longer needed.
package vision
