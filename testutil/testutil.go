// Package testutil provides shared helpers for tests: a seeded
// thread-safe RNG, random point clouds, and a brute-force reference
// neighbor search that query results are checked against.
package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/periq/periq/box"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Vec3 returns a pseudo-random point with components in [0, scale).
func (r *RNG) Vec3(scale float32) box.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return box.Vec3{
		X: r.rand.Float32() * scale,
		Y: r.rand.Float32() * scale,
		Z: r.rand.Float32() * scale,
	}
}

// RandomPoints generates n points with components in [0, scale).
func RandomPoints(r *RNG, n int, scale float32) []box.Vec3 {
	pts := make([]box.Vec3, n)
	for i := range pts {
		pts[i] = r.Vec3(scale)
	}
	return pts
}

// Neighbor is one reference search result.
type Neighbor struct {
	PointIdx uint32
	Distance float32
}

// BruteForceBall returns all points within r of q under minimum-image
// distances, sorted by (distance, point index).
func BruteForceBall(bx box.Box, points []box.Vec3, q box.Vec3, r float32) []Neighbor {
	var out []Neighbor
	for j, p := range points {
		d := bx.Wrap(p.Sub(q)).Length()
		if d < r {
			out = append(out, Neighbor{PointIdx: uint32(j), Distance: d})
		}
	}
	sortNeighbors(out)
	return out
}

// BruteForceKNN returns the k nearest points to q under minimum-image
// distances, sorted by (distance, point index). excludeIdx >= 0 drops
// that point index before selection.
func BruteForceKNN(bx box.Box, points []box.Vec3, q box.Vec3, k int, excludeIdx int) []Neighbor {
	var out []Neighbor
	for j, p := range points {
		if j == excludeIdx {
			continue
		}
		d := bx.Wrap(p.Sub(q)).Length()
		out = append(out, Neighbor{PointIdx: uint32(j), Distance: d})
	}
	sortNeighbors(out)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(a, b int) bool {
		if ns[a].Distance != ns[b].Distance {
			return ns[a].Distance < ns[b].Distance
		}
		return ns[a].PointIdx < ns[b].PointIdx
	})
}
