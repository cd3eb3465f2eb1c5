package spatial

import (
	"errors"
	"fmt"
)

// ErrInvalidBucketSize is returned by New for a bucket size below one.
var ErrInvalidBucketSize = errors.New("spatial: bucket size must be positive")

// ErrInvalidWorld is returned by New when the world rectangle is inverted.
type ErrInvalidWorld struct {
	World Rect
}

func (e *ErrInvalidWorld) Error() string {
	return fmt.Sprintf("spatial: invalid world boundary %s", e.World)
}

// Tree is a PR quadtree over a fixed world rectangle.
type Tree struct {
	world      Rect
	bounds     region
	bucketSize int
	root       node
	size       int
}

// New creates an empty tree covering world. Leaves hold up to bucketSize points.
func New(world Rect, bucketSize int) (*Tree, error) {
	if bucketSize < 1 {
		return nil, ErrInvalidBucketSize
	}
	if !world.Valid() {
		return nil, &ErrInvalidWorld{World: world}
	}
	return &Tree{
		world:      world,
		bounds:     world.region(),
		bucketSize: bucketSize,
	}, nil
}

// World returns the boundary rectangle of the tree.
func (t *Tree) World() Rect { return t.world }

// BucketSize returns the leaf capacity.
func (t *Tree) BucketSize() int { return t.bucketSize }

// Len returns the number of distinct coordinates stored.
func (t *Tree) Len() int { return t.size }

// Insert adds p to the tree. If a point with the same coordinates exists, the
// offsets of p are appended to it. Insert returns false, leaving the tree
// unchanged, when p lies outside the world or cannot be placed.
func (t *Tree) Insert(p Point) bool {
	if !t.world.Contains(p.X, p.Y) {
		return false
	}
	np := p.clone()
	if t.root == nil {
		t.root = &leaf{points: []*Point{&np}}
		t.size++
		return true
	}
	root, added, ok := t.insert(t.root, t.bounds, &np)
	if !ok {
		return false
	}
	t.root = root
	if added {
		t.size++
	}
	return true
}

// insert places p below n. added reports whether a new coordinate was stored
// (false on merge); ok is false if nothing was changed.
func (t *Tree) insert(n node, g region, p *Point) (_ node, added, ok bool) {
	switch n := n.(type) {
	case nil:
		return &leaf{points: []*Point{p}}, true, true
	case *leaf:
		if i := n.indexOf(p.X, p.Y); i >= 0 {
			n.points[i].Offsets = append(n.points[i].Offsets, p.Offsets...)
			return n, false, true
		}
		if len(n.points) < t.bucketSize {
			n.points = append(n.points, p)
			return n, true, true
		}
		pts := make([]*Point, 0, len(n.points)+1)
		pts = append(pts, n.points...)
		pts = append(pts, p)
		split, ok := t.split(g, pts)
		if !ok {
			return n, false, false
		}
		return split, true, true
	case *internal:
		d := g.quadrant(p.X, p.Y)
		if d == NoQuadrant {
			return n, false, false
		}
		child, added, ok := t.insert(n.children[d.slot()], g.child(d), p)
		if !ok {
			return n, false, false
		}
		n.children[d.slot()] = child
		return n, added, true
	default:
		panic(fmt.Sprintf("spatial: unexpected node %T", n))
	}
}

// split builds a subtree for g holding pts. When every point falls into the
// same quadrant the split continues one level deeper until they separate.
// It never modifies existing nodes.
func (t *Tree) split(g region, pts []*Point) (node, bool) {
	if len(pts) <= t.bucketSize {
		return &leaf{points: pts}, true
	}
	var groups [4][]*Point
	for _, p := range pts {
		d := g.quadrant(p.X, p.Y)
		if d == NoQuadrant {
			return nil, false
		}
		groups[d.slot()] = append(groups[d.slot()], p)
	}
	in := &internal{}
	for i, grp := range groups {
		if len(grp) == 0 {
			continue
		}
		child, ok := t.split(g.child(Direction(i+1)), grp)
		if !ok {
			return nil, false
		}
		in.children[i] = child
	}
	return in, true
}

// Find returns a copy of the offsets stored at (x, y).
func (t *Tree) Find(x, y int64) ([]int64, bool) {
	p := t.lookup(x, y)
	if p == nil {
		return nil, false
	}
	return append([]int64(nil), p.Offsets...), true
}

func (t *Tree) lookup(x, y int64) *Point {
	if !t.world.Contains(x, y) {
		return nil
	}
	n, g := t.root, t.bounds
	for {
		switch cur := n.(type) {
		case nil:
			return nil
		case *leaf:
			if i := cur.indexOf(x, y); i >= 0 {
				return cur.points[i]
			}
			return nil
		case *internal:
			d := g.quadrant(x, y)
			if d == NoQuadrant {
				return nil
			}
			n, g = cur.children[d.slot()], g.child(d)
		}
	}
}

// FindRegion returns copies of all points inside r, boundaries included.
func (t *Tree) FindRegion(r Rect) []Point {
	var out []Point
	t.visitRegion(r, func(p *Point) {
		out = append(out, p.clone())
	})
	return out
}

// CountRegion returns the number of offsets stored at points inside r.
func (t *Tree) CountRegion(r Rect) int {
	total := 0
	t.visitRegion(r, func(p *Point) {
		total += len(p.Offsets)
	})
	return total
}

func (t *Tree) visitRegion(r Rect, fn func(p *Point)) {
	if t.root == nil || !r.Valid() || !t.bounds.overlaps(r) {
		return
	}
	collect(t.root, t.bounds, r, fn)
}

// regionOrder is the child visiting order of region queries.
var regionOrder = [4]Direction{NE, NW, SE, SW}

func collect(n node, g region, r Rect, fn func(p *Point)) {
	switch n := n.(type) {
	case *leaf:
		for _, p := range n.points {
			if r.Contains(p.X, p.Y) {
				fn(p)
			}
		}
	case *internal:
		for _, d := range regionOrder {
			child := n.children[d.slot()]
			if child == nil {
				continue
			}
			if cg := g.child(d); cg.overlaps(r) {
				collect(child, cg, r, fn)
			}
		}
	}
}

// Delete removes the point at (x, y) with all of its offsets. Internal nodes
// left with no children, or with a single leaf child, are contracted on the
// way back up.
func (t *Tree) Delete(x, y int64) bool {
	if t.root == nil || !t.world.Contains(x, y) {
		return false
	}
	root, ok := remove(t.root, t.bounds, x, y)
	if !ok {
		return false
	}
	t.root = root
	t.size--
	return true
}

func remove(n node, g region, x, y int64) (node, bool) {
	switch n := n.(type) {
	case *leaf:
		i := n.indexOf(x, y)
		if i < 0 {
			return n, false
		}
		n.points = append(n.points[:i], n.points[i+1:]...)
		if len(n.points) == 0 {
			return nil, true
		}
		return n, true
	case *internal:
		d := g.quadrant(x, y)
		if d == NoQuadrant {
			return n, false
		}
		child, ok := remove(n.children[d.slot()], g.child(d), x, y)
		if !ok {
			return n, false
		}
		n.children[d.slot()] = child
		return n.collapse(), true
	default:
		return n, false
	}
}

// Height returns the number of levels in the tree; 0 when empty.
func (t *Tree) Height() int {
	return height(t.root)
}

func height(n node) int {
	switch n := n.(type) {
	case *leaf:
		return 1
	case *internal:
		h := 0
		for _, c := range n.children {
			if ch := height(c); ch > h {
				h = ch
			}
		}
		return h + 1
	default:
		return 0
	}
}
