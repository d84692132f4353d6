package aabb

import "sort"

// DefaultLeafSize is the default maximum number of points per leaf bucket.
const DefaultLeafSize = 4

// node is one entry of the pre-order node array.
type node struct {
	aabb AABB
	// skip is the number of nodes to advance, beyond the usual +1, to
	// bypass this node's entire subtree. A miss at node i continues at
	// i + skip + 1; a leaf has skip 0.
	skip  uint32
	leaf  bool
	start uint32 // offset into tags for leaves
	count uint32 // bucket size for leaves
}

// Tree is a binary AABB tree stored as a pre-order node array. It is
// immutable after construction and safe for concurrent traversal.
//
// Layout invariants: the root is node 0; an internal node's left child
// directly follows it, and every descendant leaf's point lies inside the
// node's AABB.
type Tree struct {
	nodes []node
	tags  []uint32
}

// NewTree builds a tree over the given leaf AABBs by recursive median
// split along the longest axis. leafSize bounds the bucket size of leaf
// nodes; values < 1 fall back to DefaultLeafSize. The input slice is not
// retained.
func NewTree(leaves []AABB, leafSize int) *Tree {
	if leafSize < 1 {
		leafSize = DefaultLeafSize
	}
	t := &Tree{}
	if len(leaves) == 0 {
		return t
	}

	idx := make([]uint32, len(leaves))
	for i := range idx {
		idx[i] = uint32(i)
	}
	// Generous preallocation: one internal node per split plus the leaves.
	t.nodes = make([]node, 0, 2*len(leaves)/leafSize+1)
	t.tags = make([]uint32, 0, len(leaves))
	t.build(leaves, idx, leafSize)
	return t
}

// build emits the subtree over leaves[idx] in pre-order and returns its
// node count.
func (t *Tree) build(leaves []AABB, idx []uint32, leafSize int) uint32 {
	union := leaves[idx[0]]
	for _, i := range idx[1:] {
		union = Union(union, leaves[i])
	}

	if len(idx) <= leafSize {
		start := uint32(len(t.tags))
		for _, i := range idx {
			t.tags = append(t.tags, leaves[i].Tag)
		}
		t.nodes = append(t.nodes, node{
			aabb:  union,
			leaf:  true,
			start: start,
			count: uint32(len(idx)),
		})
		return 1
	}

	// Split at the median of centers along the longest axis.
	ext := union.Upper.Sub(union.Lower)
	axis := 0
	if ext.Y > ext.X {
		axis = 1
	}
	if ext.Z > ext.X && ext.Z > ext.Y {
		axis = 2
	}
	sort.Slice(idx, func(a, b int) bool {
		return center(leaves[idx[a]], axis) < center(leaves[idx[b]], axis)
	})
	mid := len(idx) / 2

	self := len(t.nodes)
	t.nodes = append(t.nodes, node{aabb: union})
	left := t.build(leaves, idx[:mid], leafSize)
	right := t.build(leaves, idx[mid:], leafSize)
	t.nodes[self].skip = left + right
	return 1 + left + right
}

func center(a AABB, axis int) float32 {
	switch axis {
	case 0:
		return a.Lower.X + a.Upper.X
	case 1:
		return a.Lower.Y + a.Upper.Y
	default:
		return a.Lower.Z + a.Upper.Z
	}
}

// NumNodes returns the number of nodes in the tree.
func (t *Tree) NumNodes() int {
	return len(t.nodes)
}

// NodeAABB returns the bounding box of node i.
func (t *Tree) NodeAABB(i int) AABB {
	return t.nodes[i].aabb
}

// NodeSkip returns the skip offset of node i: a traversal that rejects
// node i advances by NodeSkip(i)+1 to bypass its subtree.
func (t *Tree) NodeSkip(i int) int {
	return int(t.nodes[i].skip)
}

// IsLeaf reports whether node i is a leaf.
func (t *Tree) IsLeaf(i int) bool {
	return t.nodes[i].leaf
}

// NodeCount returns the number of points in the bucket of leaf node i.
func (t *Tree) NodeCount(i int) int {
	return int(t.nodes[i].count)
}

// NodeTag returns the j-th point tag in the bucket of leaf node i.
func (t *Tree) NodeTag(i, j int) uint32 {
	return t.tags[t.nodes[i].start+uint32(j)]
}
