package spatial

import (
	"bufio"
	"io"
)

const dumpIndent = "    "

// Dump writes an indented rendering of the tree to w. Each internal node is
// printed as "@" between its SW/SE children (above) and NE/NW children
// (below); empty slots print as "*" and leaves list their points.
func (t *Tree) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	dumpNode(bw, t.root, "")
	return bw.Flush()
}

func dumpNode(w *bufio.Writer, n node, pad string) {
	switch n := n.(type) {
	case nil:
		w.WriteString(pad)
		w.WriteString("*\n")
	case *leaf:
		w.WriteString(pad)
		for _, p := range n.points {
			w.WriteString(p.String())
		}
		w.WriteByte('\n')
	case *internal:
		next := pad + dumpIndent
		dumpNode(w, n.children[SW.slot()], next)
		dumpNode(w, n.children[SE.slot()], next)
		w.WriteString(pad)
		w.WriteString("@\n")
		dumpNode(w, n.children[NE.slot()], next)
		dumpNode(w, n.children[NW.slot()], next)
	}
}
