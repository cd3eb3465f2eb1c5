// Package spatial implements the coordinate index: a bucketed PR (point-region)
// quadtree over integer arc-second coordinates.
//
// # Geometry
//
// Every node covers a rectangle of the world. Internal nodes split their
// rectangle at the midpoint into four quadrants (NE, NW, SW, SE). The midpoint
// is computed in float64, so odd-width rectangles split at a half second and
// any two distinct integer points are eventually separated.
//
// A point on an axis or at the center belongs to exactly one quadrant:
//
//	NE  (x > midX && y >= midY) || (x == midX && y == midY)
//	NW  x <= midX && y > midY
//	SW  x < midX && y <= midY
//	SE  otherwise
//
// # Usage
//
//	tree, _ := spatial.New(spatial.Rect{XMin: -300000, XMax: -250000, YMin: 130000, YMax: 150000}, 4)
//	tree.Insert(spatial.NewPoint(-280000, 140000, 1024))
//	offsets, ok := tree.Find(-280000, 140000)
//	points := tree.FindRegion(spatial.Rect{XMin: -281000, XMax: -279000, YMin: 139000, YMax: 141000})
//
// Points with equal coordinates are the same entity; inserting an existing
// coordinate merges its offsets into the stored point.
//
// # Thread Safety
//
// Tree is not safe for concurrent mutation. Callers serialize access.
package spatial
