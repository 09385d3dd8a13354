package mosaic

// NodeID addresses a node in its tree's arena. IDs are assigned in creation
// order starting at 0 for the root and are never reused until Reset.
type NodeID int32

// NoNode is the parent of the root and the value of absent children.
const NoNode NodeID = -1

// Quadrant indexes a node's children in their fixed order.
type Quadrant uint8

const (
	NW Quadrant = iota // top-left
	NE                 // top-right
	SW                 // bottom-left
	SE                 // bottom-right
)

// Node is one rectangular region of the partition. A node is either a leaf or
// owns exactly four children in NW, NE, SW, SE order that tile its bounds.
// Parent is bookkeeping only: the algorithm never walks upward.
type Node struct {
	ID     NodeID
	Parent NodeID
	Bounds Rect
	Depth  int

	// Computed by analyze. Immutable afterwards.
	Color RGB
	Error float64

	children    [4]NodeID
	hasChildren bool
	canSplit    bool
	analyzed    bool
	queued      bool // present in the pending heap
	leafIndex   int  // position in Tree.leaves, -1 when not a leaf
}

func newNode(id, parent NodeID, bounds Rect, depth int) Node {
	return Node{
		ID:        id,
		Parent:    parent,
		Bounds:    bounds,
		Depth:     depth,
		children:  [4]NodeID{NoNode, NoNode, NoNode, NoNode},
		canSplit:  true,
		leafIndex: -1,
	}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return !n.hasChildren
}

// CanSplit reports whether the node may still be split. It turns false
// permanently once a split was refused by the minimum block size.
func (n *Node) CanSplit() bool {
	return n.canSplit
}

// Analyzed reports whether Color and Error have been computed.
func (n *Node) Analyzed() bool {
	return n.analyzed
}

// Child returns the child in quadrant q, or NoNode for a leaf.
func (n *Node) Child(q Quadrant) NodeID {
	return n.children[q]
}

// Children returns the four children in NW, NE, SW, SE order, or nil for a leaf.
func (n *Node) Children() []NodeID {
	if !n.hasChildren {
		return nil
	}
	c := n.children
	return c[:]
}

// ShouldSplit reports whether the node is a split candidate under the given
// settings. It has no side effects.
func (n *Node) ShouldSplit(threshold float64, maxDepth int) bool {
	return n.canSplit && n.Error > threshold && n.Depth < maxDepth
}

// analyze computes Color and Error over the node's bounds.
func (n *Node) analyze(img *Image) {
	n.Color, n.Error = regionStats(img, n.Bounds)
	n.analyzed = true
}

// quadrants returns the bounds of the four would-be children. East and south
// children take the remainder so odd dimensions still tile exactly. When a
// half would be narrower than minSize the split is refused and the node is
// retired from splitting for good.
func (n *Node) quadrants(minSize int) ([4]Rect, bool) {
	b := n.Bounds
	subW, subH := b.Width/2, b.Height/2
	if subW < minSize || subH < minSize {
		n.canSplit = false
		return [4]Rect{}, false
	}
	return [4]Rect{
		NW: {X: b.X, Y: b.Y, Width: subW, Height: subH},
		NE: {X: b.X + subW, Y: b.Y, Width: b.Width - subW, Height: subH},
		SW: {X: b.X, Y: b.Y + subH, Width: subW, Height: b.Height - subH},
		SE: {X: b.X + subW, Y: b.Y + subH, Width: b.Width - subW, Height: b.Height - subH},
	}, true
}
