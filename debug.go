package mosaic

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogStats is a StatsSink that logs every publishing tick at debug level.
type LogStats struct {
	Logger logrus.FieldLogger
}

// Update logs tick timing and tree counters.
func (l LogStats) Update(st Stats) {
	log := l.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"run_id":     st.RunID.String(),
		"state":      st.State.String(),
		"nodes":      st.NodeCount,
		"leaves":     st.LeafCount,
		"depth":      st.MaxDepth,
		"pending":    st.Pending,
		"mean_error": st.MeanError,
		"tick_ms":    st.TickMillis(),
		"elapsed":    st.Elapsed.String(),
	}).Debug("tick")
}

// TreeDebugInfo is a point-in-time summary of a tree's internals.
type TreeDebugInfo struct {
	ArenaSize    int   // nodes ever allocated, including retired parents
	Leaves       int   // current leaves
	Pending      int   // queued candidates, stale entries included
	Refused      int   // candidates retired by the size floor
	Splits       int   // successful splits
	LeafDepths   []int // LeafDepths[d] is the number of leaves at depth d
	MinBlockSize int
}

// DebugInfo summarizes the tree. It allocates and walks every leaf, so it is
// meant for tooling and tests rather than the per-tick path.
func (t *Tree) DebugInfo() TreeDebugInfo {
	info := TreeDebugInfo{
		ArenaSize:    len(t.nodes),
		Leaves:       len(t.leaves),
		Pending:      t.pending.Len(),
		Refused:      t.refused,
		Splits:       t.splits,
		MinBlockSize: t.minSize,
		LeafDepths:   make([]int, t.maxDepthReached+1),
	}
	for _, id := range t.leaves {
		info.LeafDepths[t.nodes[id].Depth]++
	}
	return info
}

// Validate checks the structural invariants of the tree: the leaves tile the
// root exactly, every split node has four children that partition it, depths
// increase by one per level, and no child is below the size floor. It returns
// the first violation found, or nil.
func (t *Tree) Validate() error {
	if len(t.nodes) == 0 {
		if len(t.leaves) != 0 || t.pending.Len() != 0 {
			return errors.New("empty tree has leaves or pending entries")
		}
		return nil
	}

	root := t.nodes[0].Bounds
	covered := make([]bool, root.Area())
	for i, id := range t.leaves {
		n := &t.nodes[id]
		if !n.IsLeaf() {
			return errors.Errorf("leaf list holds split node %d", id)
		}
		if n.leafIndex != i {
			return errors.Errorf("node %d has leaf index %d, listed at %d", id, n.leafIndex, i)
		}
		if !n.Bounds.Within(root) || n.Bounds.Empty() {
			return errors.Errorf("leaf %d bounds %+v outside root %+v", id, n.Bounds, root)
		}
		for y := n.Bounds.Y; y < n.Bounds.Y+n.Bounds.Height; y++ {
			for x := n.Bounds.X; x < n.Bounds.X+n.Bounds.Width; x++ {
				p := (y-root.Y)*root.Width + (x - root.X)
				if covered[p] {
					return errors.Errorf("pixel (%d,%d) covered twice", x, y)
				}
				covered[p] = true
			}
		}
	}
	for p, c := range covered {
		if !c {
			return errors.Errorf("pixel (%d,%d) not covered", root.X+p%root.Width, root.Y+p/root.Width)
		}
	}

	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.hasChildren {
			continue
		}
		area := 0
		for q, c := range n.children {
			child := &t.nodes[c]
			if child.Parent != n.ID {
				return errors.Errorf("child %d of %d has parent %d", c, n.ID, child.Parent)
			}
			if child.Depth != n.Depth+1 {
				return errors.Errorf("child %d depth %d under parent depth %d", c, child.Depth, n.Depth)
			}
			if child.Bounds.Width < t.minSize || child.Bounds.Height < t.minSize {
				return errors.Errorf("child %d is %dx%d, below size floor %d",
					c, child.Bounds.Width, child.Bounds.Height, t.minSize)
			}
			if !child.Bounds.Within(n.Bounds) {
				return errors.Errorf("child %d (quadrant %d) escapes parent %d", c, q, n.ID)
			}
			area += child.Bounds.Area()
		}
		if area != n.Bounds.Area() {
			return errors.Errorf("children of %d cover %d pixels, parent has %d", n.ID, area, n.Bounds.Area())
		}
	}

	if want := 1 + 3*t.splits; t.nodeCount != want {
		return errors.Errorf("node count %d, want %d after %d splits", t.nodeCount, want, t.splits)
	}
	return nil
}
