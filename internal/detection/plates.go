package detection

import (
	"image"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-recognizer/internal/pipeline"
)

// Edge density band for plate-like windows. Printed characters on a plain
// background land around the centre of the band.
const (
	minDensity    = 0.05
	maxDensity    = 0.45
	targetDensity = 0.25
)

// DefaultMinConfidence is the window score below which raw hits are dropped.
const DefaultMinConfidence = 0.3

// DefaultAspectRatios are the width:height ratios of the sliding windows.
// Single-row plates are about 4.5:1, two-row plates closer to 2:1.
var DefaultAspectRatios = []float64{4.0, 3.0, 2.0}

// EdgeDetector finds plate candidates by scanning plate-shaped windows for
// the dense, horizontally repeating edge texture of printed characters.
//
// It needs no model files, which makes it the fallback when no cascade
// classifier is available.
type EdgeDetector struct {
	// MinConfidence drops raw windows scoring below it.
	MinConfidence float64

	// AspectRatios lists the window shapes to try.
	AspectRatios []float64
}

// NewEdgeDetector returns an EdgeDetector with the default thresholds.
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{
		MinConfidence: DefaultMinConfidence,
		AspectRatios:  DefaultAspectRatios,
	}
}

// hit is a raw window or a cluster of them.
type hit struct {
	rect       image.Rectangle
	confidence float64
	members    int
}

// Detect scans gray at every scale from params.MinSize upward and returns the
// grouped plate regions, top-to-bottom then left-to-right.
//
// A group is kept only when more than params.MinNeighbors raw windows support
// it; with MinNeighbors of zero every raw window is its own region.
func (d *EdgeDetector) Detect(gray *image.Gray, params pipeline.DetectParams) ([]pipeline.Region, error) {
	if params.ScaleFactor <= 1 {
		return nil, errors.Errorf("scale factor must be > 1, got %v", params.ScaleFactor)
	}
	if params.MinNeighbors < 0 {
		return nil, errors.Errorf("min neighbors must be >= 0, got %d", params.MinNeighbors)
	}

	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return []pipeline.Region{}, nil
	}

	edges := detectEdges(gray)
	raw := d.scan(edges, params)

	var groups []hit
	if params.MinNeighbors == 0 {
		groups = raw
	} else {
		for _, g := range groupHits(raw) {
			if g.members > params.MinNeighbors {
				groups = append(groups, g)
			}
		}
		groups = mergeOverlappingHits(groups)
	}

	regions := make([]pipeline.Region, 0, len(groups))
	for _, g := range groups {
		regions = append(regions, pipeline.RegionFromRect(g.rect))
	}

	sortRegions(regions)
	return regions, nil
}

// sortRegions orders regions top-to-bottom, then left-to-right.
func sortRegions(regions []pipeline.Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Y != regions[j].Y {
			return regions[i].Y < regions[j].Y
		}
		return regions[i].X < regions[j].X
	})
}

// scan slides every window shape over the edge map and keeps the windows
// whose texture looks like a row of characters.
func (d *EdgeDetector) scan(edges *edgeMap, params pipeline.DetectParams) []hit {
	minConfidence := d.MinConfidence
	aspects := d.AspectRatios
	if len(aspects) == 0 {
		aspects = DefaultAspectRatios
	}

	minW := params.MinSize.X
	minH := params.MinSize.Y
	if minH < 1 {
		minH = 1
	}

	hits := make([]hit, 0)
	for scale := float64(minH); int(math.Round(scale)) <= edges.height; scale *= params.ScaleFactor {
		h := int(math.Round(scale))
		for _, aspect := range aspects {
			w := int(math.Round(float64(h) * aspect))
			if w < minW || w > edges.width {
				continue
			}

			stepX := maxInt(1, w/4)
			stepY := maxInt(1, h/4)
			for y := 0; y+h <= edges.height; y += stepY {
				for x := 0; x+w <= edges.width; x += stepX {
					r := image.Rect(x, y, x+w, y+h)

					density := edges.density(r)
					if density < minDensity || density > maxDensity {
						continue
					}

					confidence := edges.horizontalScore(r) * (1.0 - math.Abs(density-targetDensity)/targetDensity)
					if confidence < minConfidence {
						continue
					}

					hits = append(hits, hit{rect: r, confidence: confidence, members: 1})
				}
			}
		}
	}

	return hits
}

// groupHits clusters raw windows that overlap a cluster's running mean
// rectangle. The cluster rectangle is the mean of its members.
func groupHits(raw []hit) []hit {
	type cluster struct {
		x1, y1, x2, y2 int
		confidence     float64
		members        int
	}
	mean := func(c cluster) image.Rectangle {
		return image.Rect(c.x1/c.members, c.y1/c.members, c.x2/c.members, c.y2/c.members)
	}

	clusters := make([]cluster, 0)
	for _, h := range raw {
		found := false
		for i := range clusters {
			if !regionsOverlap(h.rect, mean(clusters[i])) {
				continue
			}
			clusters[i].x1 += h.rect.Min.X
			clusters[i].y1 += h.rect.Min.Y
			clusters[i].x2 += h.rect.Max.X
			clusters[i].y2 += h.rect.Max.Y
			clusters[i].confidence = math.Max(clusters[i].confidence, h.confidence)
			clusters[i].members++
			found = true
			break
		}
		if !found {
			clusters = append(clusters, cluster{
				x1: h.rect.Min.X, y1: h.rect.Min.Y,
				x2: h.rect.Max.X, y2: h.rect.Max.Y,
				confidence: h.confidence,
				members:    1,
			})
		}
	}

	out := make([]hit, len(clusters))
	for i, c := range clusters {
		out[i] = hit{rect: mean(c), confidence: c.confidence, members: c.members}
	}
	return out
}

// mergeOverlappingHits combines surviving clusters that still overlap into
// their union, so one plate never yields nested regions.
func mergeOverlappingHits(hits []hit) []hit {
	if len(hits) == 0 {
		return hits
	}

	merged := make([]hit, 0)

	for _, h := range hits {
		foundMerge := false
		for i := range merged {
			if regionsOverlap(h.rect, merged[i].rect) {
				merged[i].rect = merged[i].rect.Union(h.rect)
				merged[i].confidence = math.Max(h.confidence, merged[i].confidence)
				merged[i].members += h.members
				foundMerge = true
				break
			}
		}
		if !foundMerge {
			merged = append(merged, h)
		}
	}

	return merged
}

// regionsOverlap checks if two rectangles share any pixel.
func regionsOverlap(a, b image.Rectangle) bool {
	return a.Min.X < b.Max.X && a.Max.X > b.Min.X && a.Min.Y < b.Max.Y && a.Max.Y > b.Min.Y
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
