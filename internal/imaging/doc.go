// Package imaging provides the image plumbing around plate recognition.
//
// It decodes photos from disk, keeps a path-keyed cache for long-running
// processes, extracts rectangular regions and derives the single-channel
// intensity map that detectors work on. All operations work with standard Go
// image.Image types and use a coordinate system where (0,0) is at the top-left
// corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//   - Crop takes rectangles in the source image's own coordinate space
//   - Crop and Intensity return buffers whose origin is (0,0)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their input, so they can be called
// concurrently on the same image.
//
// # Error Handling
//
// Load distinguishes two failures so callers can report them separately:
//   - ErrImageNotFound: the path does not resolve to a readable file
//   - ErrImageDecode: the file is not a supported image format
//
// Use errors.Is to test for them; the wrapped message carries the path and the
// underlying cause.
package imaging
