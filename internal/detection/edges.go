package detection

import (
	"image"
)

// edgeThreshold is the minimum intensity step between neighbouring pixels
// that counts as an edge.
const edgeThreshold = 30

// edgeMap is a binary gradient map of an intensity image together with
// summed-area tables, so edge statistics over any window cost O(1).
type edgeMap struct {
	width, height int
	edges         []bool

	// Summed-area tables with one extra leading row and column.
	count   []int // edge pixels
	hStarts []int // first pixel of a horizontal edge run
	vStarts []int // first pixel of a vertical edge run
}

// detectEdges marks pixels whose intensity differs from the right or lower
// neighbour by more than edgeThreshold. The outermost ring is never an edge.
func detectEdges(gray *image.Gray) *edgeMap {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	m := &edgeMap{
		width:  width,
		height: height,
		edges:  make([]bool, width*height),
	}

	at := func(x, y int) int {
		return int(gray.Pix[y*gray.Stride+x])
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			c := at(x, y)
			dx := abs(c - at(x+1, y))
			dy := abs(c - at(x, y+1))
			if dx > edgeThreshold || dy > edgeThreshold {
				m.edges[y*width+x] = true
			}
		}
	}

	m.count = m.integrate(func(x, y int) bool { return m.edge(x, y) })
	m.hStarts = m.integrate(func(x, y int) bool { return m.edge(x, y) && !m.edge(x-1, y) })
	m.vStarts = m.integrate(func(x, y int) bool { return m.edge(x, y) && !m.edge(x, y-1) })
	return m
}

func (m *edgeMap) edge(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.edges[y*m.width+x]
}

func (m *edgeMap) integrate(pred func(x, y int) bool) []int {
	stride := m.width + 1
	table := make([]int, stride*(m.height+1))
	for y := 0; y < m.height; y++ {
		rowSum := 0
		for x := 0; x < m.width; x++ {
			if pred(x, y) {
				rowSum++
			}
			table[(y+1)*stride+x+1] = table[y*stride+x+1] + rowSum
		}
	}
	return table
}

func (m *edgeMap) sum(table []int, r image.Rectangle) int {
	stride := m.width + 1
	return table[r.Max.Y*stride+r.Max.X] - table[r.Min.Y*stride+r.Max.X] -
		table[r.Max.Y*stride+r.Min.X] + table[r.Min.Y*stride+r.Min.X]
}

// density is the fraction of edge pixels inside r.
func (m *edgeMap) density(r image.Rectangle) float64 {
	area := r.Dx() * r.Dy()
	if area == 0 {
		return 0
	}
	return float64(m.sum(m.count, r)) / float64(area)
}

// horizontalScore is the share of horizontal edge runs among all runs in r.
// Character strokes on a plate cross each scan line many times, so rows hold
// many short runs while columns hold few long ones. A run that enters r from
// outside is not counted.
func (m *edgeMap) horizontalScore(r image.Rectangle) float64 {
	h := m.sum(m.hStarts, r)
	v := m.sum(m.vStarts, r)
	if h+v == 0 {
		return 0
	}
	return float64(h) / float64(h+v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
