package spatial

import "fmt"

// Direction names a quadrant of a node's rectangle.
type Direction uint8

const (
	// NoQuadrant is returned for points outside a rectangle and for
	// degenerate (zero width or height) rectangles.
	NoQuadrant Direction = iota
	NE
	NW
	SW
	SE
)

func (d Direction) String() string {
	switch d {
	case NE:
		return "NE"
	case NW:
		return "NW"
	case SW:
		return "SW"
	case SE:
		return "SE"
	default:
		return "NOQUADRANT"
	}
}

// slot maps a quadrant to its child index. NoQuadrant has no slot.
func (d Direction) slot() int { return int(d) - 1 }

// Rect is an axis-aligned rectangle with inclusive integer bounds.
type Rect struct {
	XMin, XMax int64
	YMin, YMax int64
}

// Contains reports whether (x, y) lies within or on the boundary of r.
func (r Rect) Contains(x, y int64) bool {
	return x >= r.XMin && x <= r.XMax && y >= r.YMin && y <= r.YMax
}

// Valid reports whether the minimum bounds do not exceed the maximum bounds.
func (r Rect) Valid() bool {
	return r.XMin <= r.XMax && r.YMin <= r.YMax
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d, %d] x [%d, %d]", r.XMin, r.XMax, r.YMin, r.YMax)
}

func (r Rect) region() region {
	return region{
		xLo: float64(r.XMin), xHi: float64(r.XMax),
		yLo: float64(r.YMin), yHi: float64(r.YMax),
	}
}

// region is the float64 rectangle covered by a tree node.
type region struct {
	xLo, xHi float64
	yLo, yHi float64
}

func (g region) mid() (float64, float64) {
	return g.xLo + (g.xHi-g.xLo)/2, g.yLo + (g.yHi-g.yLo)/2
}

func (g region) contains(x, y int64) bool {
	fx, fy := float64(x), float64(y)
	return fx >= g.xLo && fx <= g.xHi && fy >= g.yLo && fy <= g.yHi
}

// quadrant assigns (x, y) to a quadrant of g.
func (g region) quadrant(x, y int64) Direction {
	if g.xLo == g.xHi || g.yLo == g.yHi || !g.contains(x, y) {
		return NoQuadrant
	}
	midX, midY := g.mid()
	fx, fy := float64(x), float64(y)
	switch {
	case (fx > midX && fy >= midY) || (fx == midX && fy == midY):
		return NE
	case fx <= midX && fy > midY:
		return NW
	case fx < midX && fy <= midY:
		return SW
	default:
		return SE
	}
}

// child returns the rectangle of quadrant d. Children share their split edges.
func (g region) child(d Direction) region {
	midX, midY := g.mid()
	switch d {
	case NE:
		return region{xLo: midX, xHi: g.xHi, yLo: midY, yHi: g.yHi}
	case NW:
		return region{xLo: g.xLo, xHi: midX, yLo: midY, yHi: g.yHi}
	case SW:
		return region{xLo: g.xLo, xHi: midX, yLo: g.yLo, yHi: midY}
	case SE:
		return region{xLo: midX, xHi: g.xHi, yLo: g.yLo, yHi: midY}
	default:
		return g
	}
}

// overlaps reports whether g and the query rectangle share any point.
// Touching edges count as overlapping.
func (g region) overlaps(r Rect) bool {
	q := r.region()
	if q.xLo > g.xHi || g.xLo > q.xHi {
		return false
	}
	if q.yLo > g.yHi || g.yLo > q.yHi {
		return false
	}
	return true
}
