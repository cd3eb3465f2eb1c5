package spatial

// node is either *leaf or *internal.
type node interface {
	isNode()
}

// leaf holds at most bucketSize points, except when its region can no
// longer be split.
type leaf struct {
	points []*Point
}

// internal owns four child slots indexed by Direction.slot().
type internal struct {
	children [4]node
}

func (*leaf) isNode()     {}
func (*internal) isNode() {}

func (l *leaf) indexOf(x, y int64) int {
	for i, p := range l.points {
		if p.X == x && p.Y == y {
			return i
		}
	}
	return -1
}

// occupied returns the number of non-empty child slots and the last one seen.
func (in *internal) occupied() (int, node) {
	n := 0
	var last node
	for _, c := range in.children {
		if c != nil {
			n++
			last = c
		}
	}
	return n, last
}

// collapse returns the node that should replace in after a removal:
// nil when no child is left, the sole child when it is a leaf, in otherwise.
func (in *internal) collapse() node {
	n, last := in.occupied()
	switch n {
	case 0:
		return nil
	case 1:
		if l, ok := last.(*leaf); ok {
			return l
		}
	}
	return in
}
