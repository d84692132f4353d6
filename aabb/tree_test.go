package aabb

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periq/periq/box"
)

func pointLeaves(pts []box.Vec3) []AABB {
	leaves := make([]AABB, len(pts))
	for i, p := range pts {
		leaves[i] = NewPoint(p, uint32(i))
	}
	return leaves
}

// traverse runs the stackless walk and collects every tag whose leaf AABB
// overlaps the sphere.
func traverse(t *Tree, s Sphere) []uint32 {
	var tags []uint32
	i := 0
	for i < t.NumNodes() {
		if Overlap(t.NodeAABB(i), s) {
			if t.IsLeaf(i) {
				for j := 0; j < t.NodeCount(i); j++ {
					tags = append(tags, t.NodeTag(i, j))
				}
			}
			i++
		} else {
			i += t.NodeSkip(i) + 1
		}
	}
	return tags
}

func TestTreeEmpty(t *testing.T) {
	tr := NewTree(nil, 0)
	assert.Equal(t, 0, tr.NumNodes())
}

func TestTreeSingleLeaf(t *testing.T) {
	tr := NewTree(pointLeaves([]box.Vec3{{X: 1, Y: 2, Z: 3}}), 4)
	require.Equal(t, 1, tr.NumNodes())
	assert.True(t, tr.IsLeaf(0))
	assert.Equal(t, 1, tr.NodeCount(0))
	assert.Equal(t, uint32(0), tr.NodeTag(0, 0))
	assert.Equal(t, 0, tr.NodeSkip(0))
}

func TestTreeContainmentInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pts := make([]box.Vec3, 200)
	for i := range pts {
		pts[i] = box.Vec3{X: rng.Float32(), Y: rng.Float32(), Z: rng.Float32()}
	}
	tr := NewTree(pointLeaves(pts), 4)

	// Every leaf point must lie inside the AABB of every ancestor. With the
	// pre-order skip layout, node j is a descendant of node i iff
	// i < j <= i+skip(i).
	for i := 0; i < tr.NumNodes(); i++ {
		if tr.IsLeaf(i) {
			continue
		}
		bound := tr.NodeAABB(i)
		for j := i + 1; j <= i+tr.NodeSkip(i); j++ {
			if !tr.IsLeaf(j) {
				continue
			}
			for p := 0; p < tr.NodeCount(j); p++ {
				pt := pts[tr.NodeTag(j, p)]
				assert.GreaterOrEqual(t, pt.X, bound.Lower.X)
				assert.LessOrEqual(t, pt.X, bound.Upper.X)
				assert.GreaterOrEqual(t, pt.Y, bound.Lower.Y)
				assert.LessOrEqual(t, pt.Y, bound.Upper.Y)
				assert.GreaterOrEqual(t, pt.Z, bound.Lower.Z)
				assert.LessOrEqual(t, pt.Z, bound.Upper.Z)
			}
		}
	}
}

func TestTreeSkipOffsets(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	pts := make([]box.Vec3, 100)
	for i := range pts {
		pts[i] = box.Vec3{X: rng.Float32(), Y: rng.Float32(), Z: rng.Float32()}
	}
	tr := NewTree(pointLeaves(pts), 4)

	// Rejecting the root must bypass the whole tree.
	assert.Equal(t, tr.NumNodes(), tr.NodeSkip(0)+1)

	// Every tag appears exactly once across the leaves.
	seen := make(map[uint32]int)
	for i := 0; i < tr.NumNodes(); i++ {
		if !tr.IsLeaf(i) {
			continue
		}
		for j := 0; j < tr.NodeCount(i); j++ {
			seen[tr.NodeTag(i, j)]++
		}
	}
	require.Len(t, seen, len(pts))
	for tag, n := range seen {
		assert.Equal(t, 1, n, "tag %d", tag)
	}
}

func TestTraversalMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pts := make([]box.Vec3, 500)
	for i := range pts {
		pts[i] = box.Vec3{X: rng.Float32() * 10, Y: rng.Float32() * 10, Z: rng.Float32() * 10}
	}
	tr := NewTree(pointLeaves(pts), 4)

	for trial := 0; trial < 20; trial++ {
		s := Sphere{
			Center: box.Vec3{X: rng.Float32() * 10, Y: rng.Float32() * 10, Z: rng.Float32() * 10},
			R:      rng.Float32() * 2,
		}
		got := traverse(tr, s)

		want := make(map[uint32]bool)
		for i, p := range pts {
			if Overlap(NewPoint(p, uint32(i)), s) {
				want[uint32(i)] = true
			}
		}

		// Traversal yields a superset of the exact in-sphere points and a
		// subset of all points; every exact hit must be among the candidates.
		gotSet := make(map[uint32]bool, len(got))
		for _, tag := range got {
			gotSet[tag] = true
		}
		for tag := range want {
			assert.True(t, gotSet[tag], "missing point %d", tag)
		}
	}
}

func TestTreeLeafBucketSize(t *testing.T) {
	pts := make([]box.Vec3, 64)
	for i := range pts {
		pts[i] = box.Vec3{X: float32(i)}
	}
	tr := NewTree(pointLeaves(pts), 8)
	for i := 0; i < tr.NumNodes(); i++ {
		if tr.IsLeaf(i) {
			assert.LessOrEqual(t, tr.NodeCount(i), 8)
		}
	}
}
