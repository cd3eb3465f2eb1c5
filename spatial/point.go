package spatial

import (
	"strconv"
	"strings"
)

// Point is a coordinate together with the backing-store offsets of every
// record located there.
type Point struct {
	X, Y    int64
	Offsets []int64
}

// NewPoint returns a point at (x, y) holding the given offsets.
func NewPoint(x, y int64, offsets ...int64) Point {
	return Point{X: x, Y: y, Offsets: append([]int64(nil), offsets...)}
}

// SameLocation reports whether p and o have equal coordinates.
func (p *Point) SameLocation(o *Point) bool {
	return p.X == o.X && p.Y == o.Y
}

// String renders the point as "[(x, y), o1 o2 ]".
func (p Point) String() string {
	var sb strings.Builder
	sb.WriteString("[(")
	sb.WriteString(strconv.FormatInt(p.X, 10))
	sb.WriteString(", ")
	sb.WriteString(strconv.FormatInt(p.Y, 10))
	sb.WriteString("), ")
	for _, off := range p.Offsets {
		sb.WriteString(strconv.FormatInt(off, 10))
		sb.WriteByte(' ')
	}
	sb.WriteByte(']')
	return sb.String()
}

func (p *Point) clone() Point {
	return Point{X: p.X, Y: p.Y, Offsets: append([]int64(nil), p.Offsets...)}
}
