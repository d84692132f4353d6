package periq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periq/periq/box"
	"github.com/periq/periq/testutil"
)

func TestBallMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(42)
	bx := box.New(10, 10, 10)
	points := testutil.RandomPoints(rng, 300, 10)
	queries := testutil.RandomPoints(rng, 20, 10)
	nq := NewAABBQuery(bx, points)

	const r = 2.0

	it, err := nq.QueryBall(queries, r, false)
	require.NoError(t, err)

	got := make(map[uint32][]NeighborBond)
	for b := it.Next(); !b.IsTerminator(); b = it.Next() {
		got[b.QueryIdx] = append(got[b.QueryIdx], b)
	}

	for i, q := range queries {
		want := testutil.BruteForceBall(bx, points, q, r)
		bonds := got[uint32(i)]
		sortByDistance(bonds)
		require.Len(t, bonds, len(want), "query %d", i)
		for j, w := range want {
			assert.Equal(t, w.PointIdx, bonds[j].PointIdx, "query %d bond %d", i, j)
			assert.InDelta(t, w.Distance, bonds[j].Distance, 1e-4)
		}
	}
}

func TestBallMatchesBruteForceTriclinic(t *testing.T) {
	bx, err := box.NewTriclinic(box.Vec3{X: 10, Y: 0, Z: 0}, box.Vec3{X: 2, Y: 10, Z: 0}, box.Vec3{X: 0, Y: 0, Z: 10})
	require.NoError(t, err)

	rng := testutil.NewRNG(7)
	points := testutil.RandomPoints(rng, 200, 8)
	queries := testutil.RandomPoints(rng, 10, 8)
	nq := NewAABBQuery(bx, points)

	const r = 1.5

	it, err := nq.QueryBall(queries, r, false)
	require.NoError(t, err)

	counts := make(map[uint32]int)
	for b := it.Next(); !b.IsTerminator(); b = it.Next() {
		counts[b.QueryIdx]++
	}
	for i, q := range queries {
		want := testutil.BruteForceBall(bx, points, q, r)
		assert.Len(t, want, counts[uint32(i)], "query %d", i)
	}
}

func TestKNNMonotoneDistances(t *testing.T) {
	rng := testutil.NewRNG(11)
	bx := box.New(10, 10, 10)
	points := testutil.RandomPoints(rng, 100, 10)
	nq := NewAABBQuery(bx, points)

	it, err := nq.QueryKNN([]box.Vec3{{X: 5, Y: 5, Z: 5}}, 12, false)
	require.NoError(t, err)

	bonds := drain(t, it)
	require.Len(t, bonds, 12)
	for i := 1; i < len(bonds); i++ {
		assert.LessOrEqual(t, bonds[i-1].Distance, bonds[i].Distance)
	}
}

func TestKNNMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(23)
	bx := box.New(10, 10, 10)
	points := testutil.RandomPoints(rng, 150, 10)
	queries := testutil.RandomPoints(rng, 15, 10)
	nq := NewAABBQuery(bx, points)

	const k = 6

	it, err := nq.QueryKNN(queries, k, false)
	require.NoError(t, err)

	got := make(map[uint32][]NeighborBond)
	for b := it.Next(); !b.IsTerminator(); b = it.Next() {
		got[b.QueryIdx] = append(got[b.QueryIdx], b)
	}

	for i, q := range queries {
		want := testutil.BruteForceKNN(bx, points, q, k, -1)
		bonds := got[uint32(i)]
		require.Len(t, bonds, k, "query %d", i)
		for j, w := range want {
			assert.Equal(t, w.PointIdx, bonds[j].PointIdx, "query %d rank %d", i, j)
			assert.InDelta(t, w.Distance, bonds[j].Distance, 1e-4)
		}
	}
}

func TestKNNExcludeSelf(t *testing.T) {
	// Querying a point set against itself with self-exclusion still
	// returns the full k bonds per query, none of them self pairs.
	rng := testutil.NewRNG(31)
	bx := box.New(10, 10, 10)
	points := testutil.RandomPoints(rng, 150, 10)
	nq := NewAABBQuery(bx, points)

	const k = 4

	it, err := nq.QueryKNN(points, k, true)
	require.NoError(t, err)

	got := make(map[uint32][]NeighborBond)
	for b := it.Next(); !b.IsTerminator(); b = it.Next() {
		got[b.QueryIdx] = append(got[b.QueryIdx], b)
	}

	for i := range points {
		bonds := got[uint32(i)]
		require.Len(t, bonds, k, "query %d", i)

		want := testutil.BruteForceKNN(bx, points, points[i], k, i)
		for j, w := range want {
			assert.NotEqual(t, uint32(i), bonds[j].PointIdx)
			assert.Equal(t, w.PointIdx, bonds[j].PointIdx, "query %d rank %d", i, j)
		}
	}
}

func TestBallExcludeSelf(t *testing.T) {
	bx := box.New(10, 10, 10)
	points := []box.Vec3{{X: 1, Y: 1, Z: 1}, {X: 1.5, Y: 1, Z: 1}}
	nq := NewAABBQuery(bx, points)

	it, err := nq.QueryBall(points, 1, true)
	require.NoError(t, err)

	bonds := drain(t, it)
	require.Len(t, bonds, 2)
	for _, b := range bonds {
		assert.NotEqual(t, b.QueryIdx, b.PointIdx)
	}
}

func TestPerQueryIterator(t *testing.T) {
	bx := box.New(10, 10, 10)
	points := []box.Vec3{{X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, {X: 8, Y: 0, Z: 0}}
	nq := NewAABBQuery(bx, points)

	it, err := nq.QueryBall([]box.Vec3{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}, 2.5, false)
	require.NoError(t, err)

	// Per-query iterators replicate the query for one point each.
	first := drain(t, it.PerQuery(0))
	second := drain(t, it.PerQuery(1))

	firstPoints := map[uint32]bool{}
	for _, b := range first {
		assert.Equal(t, uint32(0), b.QueryIdx)
		firstPoints[b.PointIdx] = true
	}
	assert.Equal(t, map[uint32]bool{0: true, 1: true, 2: true}, firstPoints)

	secondPoints := map[uint32]bool{}
	for _, b := range second {
		assert.Equal(t, uint32(1), b.QueryIdx)
		secondPoints[b.PointIdx] = true
	}
	assert.Equal(t, map[uint32]bool{0: true, 1: true}, secondPoints)
}

func TestIteratorTerminatorProtocol(t *testing.T) {
	bx := box.New(10, 10, 10)
	nq := NewAABBQuery(bx, []box.Vec3{{X: 5, Y: 5, Z: 5}})

	it, err := nq.QueryBall([]box.Vec3{{X: 0, Y: 0, Z: 0}}, 0.5, false)
	require.NoError(t, err)

	// No neighbors: End stays false until Next has overrun once.
	assert.False(t, it.End())
	assert.True(t, it.Next().IsTerminator())
	assert.True(t, it.End())
	assert.True(t, it.Next().IsTerminator())
}

func TestKNNSmallPeriodicBox(t *testing.T) {
	// In a small periodic box the two nearest neighbors sit on either side
	// of the periodic boundary at equal distance; both are found.
	bx := box.New(2, 2, 2)
	points := []box.Vec3{{X: 0.1, Y: 0, Z: 0}, {X: 1.9, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}}
	nq := NewAABBQuery(bx, points)

	it, err := nq.QueryKNN([]box.Vec3{{X: 0, Y: 0, Z: 0}}, 2, false)
	require.NoError(t, err)

	bonds := drain(t, it)
	require.Len(t, bonds, 2)
	assert.InDelta(t, 0.1, bonds[0].Distance, 1e-5)
	assert.InDelta(t, 0.1, bonds[1].Distance, 1e-5)
}
