// Package detection finds licence plate candidates without native
// dependencies.
//
// EdgeDetector implements pipeline.Detector with a sliding-window texture
// heuristic: a row of printed characters on a plain plate produces a band of
// medium edge density whose edge runs are short along scan lines and long
// down columns. The scan works like a cascade classifier's:
//
//  1. Edge Detection: mark pixels whose intensity step to the right or below
//     exceeds a fixed threshold
//  2. Scanning: slide plate-shaped windows over the map, starting at the
//     minimum size and growing by the scale factor
//  3. Grouping: cluster overlapping windows and keep clusters backed by more
//     than the requested number of neighbours
//  4. Ordering: return regions top-to-bottom, then left-to-right
//
// Edge counts come from summed-area tables, so each window costs O(1)
// regardless of its size.
//
// # Coordinate System
//
// Regions are relative to the top-left corner of the intensity image, with X
// increasing rightward and Y increasing downward.
//
// # Limitations
//
// The heuristic favours clean, frontal plates. Strongly textured backgrounds
// such as grilles or foliage also produce dense horizontal edges and may be
// reported; the OCR stage rejects such regions when no text is read.
package detection
