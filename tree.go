package mosaic

import (
	"container/heap"
	"image"

	"golang.org/x/image/draw"
)

// Leaf is a read-only snapshot of a leaf node handed to renderers.
type Leaf struct {
	ID     NodeID
	Parent NodeID
	Bounds Rect
	Depth  int
	Color  RGB
	Error  float64
}

// Tree owns the node arena of one partition, the flat list of current leaves,
// and the pending heap of leaves eligible to split. A Tree is not safe for
// concurrent use; the Scheduler that owns it is its only caller.
type Tree struct {
	minSize int

	nodes   []Node
	leaves  []NodeID
	pending pendingQueue

	nodeCount       int
	maxDepthReached int
	splits          int
	refused         int
}

// NewTree creates an empty tree whose blocks never get narrower or shorter
// than minBlockSize pixels. Panics if minBlockSize < 1.
func NewTree(minBlockSize int) *Tree {
	if minBlockSize < 1 {
		panic("mosaic: minimum block size must be at least 1")
	}
	return &Tree{minSize: minBlockSize}
}

// MinBlockSize returns the size floor the tree was created with.
func (t *Tree) MinBlockSize() int {
	return t.minSize
}

// Initialize discards any previous state, creates and analyzes the root over
// the full image and queues it if it already qualifies for splitting. The
// image must have passed Validate.
func (t *Tree) Initialize(img *Image, threshold float64, maxDepth int) {
	t.Reset()
	root := t.alloc(NoNode, img.Bounds(), 0)
	t.nodes[root].analyze(img)
	t.addLeaf(root)
	t.enqueue(root, threshold, maxDepth)
	t.nodeCount = 1
}

// Reset discards the root, leaves, pending set and counters.
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	t.leaves = t.leaves[:0]
	t.pending = t.pending[:0]
	t.nodeCount = 0
	t.maxDepthReached = 0
	t.splits = 0
	t.refused = 0
}

// Initialized reports whether the tree currently holds a root.
func (t *Tree) Initialized() bool {
	return len(t.nodes) > 0
}

// Step performs at most one split: the pending leaf with the highest error
// that still qualifies under threshold and maxDepth is replaced by its four
// analyzed children. Candidates that no longer qualify, or that the size floor
// refuses, are dropped and the next one is tried. Step returns false only when
// the pending set is exhausted; it then keeps returning false without touching
// the tree until settings are relaxed via Rescan.
func (t *Tree) Step(img *Image, threshold float64, maxDepth int) bool {
	for t.pending.Len() > 0 {
		e := heap.Pop(&t.pending).(pendingEntry)
		n := &t.nodes[e.id]
		n.queued = false
		if !n.IsLeaf() || !n.ShouldSplit(threshold, maxDepth) {
			continue
		}
		children, ok := t.split(e.id)
		if !ok {
			t.refused++
			continue
		}
		t.replaceLeaf(img, e.id, children)
		for _, c := range children {
			t.enqueue(c, threshold, maxDepth)
		}
		t.nodeCount += 3
		if d := t.nodes[children[0]].Depth; d > t.maxDepthReached {
			t.maxDepthReached = d
		}
		t.splits++
		return true
	}
	return false
}

// split allocates the four children of id. They are returned in NW, NE, SW,
// SE order and are not yet analyzed.
func (t *Tree) split(id NodeID) ([4]NodeID, bool) {
	quads, ok := t.nodes[id].quadrants(t.minSize)
	if !ok {
		return [4]NodeID{}, false
	}
	depth := t.nodes[id].Depth + 1
	var children [4]NodeID
	for q, r := range quads {
		children[q] = t.alloc(id, r, depth)
	}
	// alloc may grow the arena, so re-index the parent.
	parent := &t.nodes[id]
	parent.children = children
	parent.hasChildren = true
	return children, true
}

// replaceLeaf swaps a split parent for its children in the leaf list: the NW
// child takes over the parent's slot and the others are appended. Children
// are analyzed here.
func (t *Tree) replaceLeaf(img *Image, parent NodeID, children [4]NodeID) {
	slot := t.nodes[parent].leafIndex
	t.nodes[parent].leafIndex = -1
	for i, c := range children {
		t.nodes[c].analyze(img)
		if i == 0 {
			t.leaves[slot] = c
			t.nodes[c].leafIndex = slot
			continue
		}
		t.addLeaf(c)
	}
}

// Rescan queues every leaf that qualifies under the given settings and is not
// already pending. Used when a threshold is lowered or the depth limit raised,
// since leaves rejected earlier may now qualify. Returns the number queued.
func (t *Tree) Rescan(threshold float64, maxDepth int) int {
	added := 0
	for _, id := range t.leaves {
		if t.enqueue(id, threshold, maxDepth) {
			added++
		}
	}
	return added
}

func (t *Tree) alloc(parent NodeID, bounds Rect, depth int) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, newNode(id, parent, bounds, depth))
	return id
}

func (t *Tree) addLeaf(id NodeID) {
	t.nodes[id].leafIndex = len(t.leaves)
	t.leaves = append(t.leaves, id)
}

func (t *Tree) enqueue(id NodeID, threshold float64, maxDepth int) bool {
	n := &t.nodes[id]
	if n.queued || !n.IsLeaf() || !n.ShouldSplit(threshold, maxDepth) {
		return false
	}
	n.queued = true
	heap.Push(&t.pending, pendingEntry{id: id, score: n.Error})
	return true
}

// --- Accessors ---

// Root returns the root ID, or NoNode before Initialize.
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Node returns the node with the given ID. The pointer is only valid until
// the next Step; do not retain it.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Leaves returns the current leaf IDs. The returned slice MUST NOT be mutated
// and is only valid until the next Step.
func (t *Tree) Leaves() []NodeID {
	return t.leaves
}

// AppendLeaves appends a snapshot of every current leaf to dst.
func (t *Tree) AppendLeaves(dst []Leaf) []Leaf {
	for _, id := range t.leaves {
		n := &t.nodes[id]
		dst = append(dst, Leaf{
			ID:     n.ID,
			Parent: n.Parent,
			Bounds: n.Bounds,
			Depth:  n.Depth,
			Color:  n.Color,
			Error:  n.Error,
		})
	}
	return dst
}

// NodeCount returns 1 + 3*splits: the root plus four new nodes per split
// minus the retired parent.
func (t *Tree) NodeCount() int { return t.nodeCount }

// MaxDepthReached returns the deepest leaf depth created so far.
func (t *Tree) MaxDepthReached() int { return t.maxDepthReached }

// Splits returns the number of successful splits since Initialize.
func (t *Tree) Splits() int { return t.splits }

// PendingLen returns the number of queued candidates. Entries that no longer
// qualify after a settings change are counted until Step discards them.
func (t *Tree) PendingLen() int { return t.pending.Len() }

// LeafCount returns the number of current leaves.
func (t *Tree) LeafCount() int { return len(t.leaves) }

// MeanError returns the area-weighted mean error of the current leaves, a
// single figure for how closely the partition approximates the image.
func (t *Tree) MeanError() float64 {
	var sum float64
	var area int
	for _, id := range t.leaves {
		n := &t.nodes[id]
		a := n.Bounds.Area()
		sum += n.Error * float64(a)
		area += a
	}
	if area == 0 {
		return 0
	}
	return sum / float64(area)
}

// Approximation rasterizes the current leaves, each filled with its average
// color. Returns nil before Initialize.
func (t *Tree) Approximation() *image.RGBA {
	if len(t.nodes) == 0 {
		return nil
	}
	dst := image.NewRGBA(t.nodes[0].Bounds.Image())
	for _, id := range t.leaves {
		n := &t.nodes[id]
		draw.Draw(dst, n.Bounds.Image(), image.NewUniform(n.Color.RGBA()), image.Point{}, draw.Src)
	}
	return dst
}
