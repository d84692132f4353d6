package periq

import (
	"context"
	"fmt"

	"github.com/periq/periq/aabb"
	"github.com/periq/periq/box"
	"github.com/periq/periq/nlist"
)

// NeighborBond is a single (query, point, distance, weight) neighbor pair.
// It is the element type of both iterators and bond lists.
type NeighborBond = nlist.Bond

// Terminator is the sentinel bond returned by iterators after exhaustion.
var Terminator = nlist.Terminator

// NeighborQuery is a collection of points in a box that can be queried for
// neighbors. The two backends are AABBQuery (tree-backed) and RawPoints
// (carries box and points only; querying is unsupported).
type NeighborQuery interface {
	// Box returns the simulation box the points live in.
	Box() box.Box
	// Points returns the reference point slice. Callers must not mutate it.
	Points() []box.Vec3
	// NumPoints returns the number of reference points.
	NumPoints() int
	// Query creates an iterator over the neighbors of each query point,
	// dispatching on the query mode.
	Query(queryPoints []box.Vec3, args QueryArgs) (*QueryIterator, error)
}

// AABBQuery answers neighbor queries using a stackless AABB tree built once
// over the reference points. It is immutable after construction and safe
// for concurrent queries.
type AABBQuery struct {
	bx     box.Box
	points []box.Vec3
	tree   *aabb.Tree
	opts   options
}

var _ NeighborQuery = (*AABBQuery)(nil)

// NewAABBQuery builds an AABB tree over points. The point slice is
// retained as a non-owning view and must not be mutated afterwards.
func NewAABBQuery(bx box.Box, points []box.Vec3, opts ...Option) *AABBQuery {
	o := applyOptions(opts)

	leaves := make([]aabb.AABB, len(points))
	for i, p := range points {
		if bx.Is2D() {
			p.Z = 0
		}
		leaves[i] = aabb.NewPoint(p, uint32(i))
	}
	tree := aabb.NewTree(leaves, o.leafBucketSize)

	q := &AABBQuery{
		bx:     bx,
		points: points,
		tree:   tree,
		opts:   o,
	}
	o.logger.LogBuild(context.Background(), len(points), tree.NumNodes())
	return q
}

// Box returns the simulation box.
func (q *AABBQuery) Box() box.Box {
	return q.bx
}

// Points returns the reference points as a view.
func (q *AABBQuery) Points() []box.Vec3 {
	return q.points
}

// NumPoints returns the number of reference points.
func (q *AABBQuery) NumPoints() int {
	return len(q.points)
}

// pointAt returns reference point j, with z zeroed for 2D boxes.
func (q *AABBQuery) pointAt(j uint32) box.Vec3 {
	p := q.points[j]
	if q.bx.Is2D() {
		p.Z = 0
	}
	return p
}

// Query creates an iterator over the neighbors of each query point. The
// mode is inferred from args when unset; argument validation and the
// box-size check for ball cutoffs happen here.
func (q *AABBQuery) Query(queryPoints []box.Vec3, args QueryArgs) (*QueryIterator, error) {
	it, err := q.newQueryIterator(queryPoints, args)
	q.opts.logger.LogQuery(context.Background(), args.Mode, len(queryPoints), err)
	return it, err
}

func (q *AABBQuery) newQueryIterator(queryPoints []box.Vec3, args QueryArgs) (*QueryIterator, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	it := &QueryIterator{
		q:           q,
		queryPoints: queryPoints,
		args:        args,
	}
	if args.Mode == ModeBall {
		images, err := imageVectors(q.bx, args.RMax)
		if err != nil {
			return nil, err
		}
		it.images = images
	}
	return it, nil
}

// QueryBall creates a ball query iterator with cutoff rmax.
func (q *AABBQuery) QueryBall(queryPoints []box.Vec3, rmax float32, excludeII bool) (*QueryIterator, error) {
	return q.Query(queryPoints, BallArgs(rmax, excludeII))
}

// QueryKNN creates a k-nearest-neighbor query iterator.
func (q *AABBQuery) QueryKNN(queryPoints []box.Vec3, k int, excludeII bool) (*QueryIterator, error) {
	return q.Query(queryPoints, NearestArgs(k, excludeII))
}

// RawPoints carries a box and points without building a tree. Only the
// bond-list paths of the driver functions work with it; Query fails with
// ErrUnsupported.
type RawPoints struct {
	bx     box.Box
	points []box.Vec3
}

var _ NeighborQuery = (*RawPoints)(nil)

// NewRawPoints creates a query handle without an acceleration structure.
func NewRawPoints(bx box.Box, points []box.Vec3) *RawPoints {
	return &RawPoints{bx: bx, points: points}
}

// Box returns the simulation box.
func (r *RawPoints) Box() box.Box {
	return r.bx
}

// Points returns the reference points as a view.
func (r *RawPoints) Points() []box.Vec3 {
	return r.points
}

// NumPoints returns the number of reference points.
func (r *RawPoints) NumPoints() int {
	return len(r.points)
}

// Query is unsupported for RawPoints.
func (r *RawPoints) Query([]box.Vec3, QueryArgs) (*QueryIterator, error) {
	return nil, fmt.Errorf("%w: RawPoints cannot be queried", ErrUnsupported)
}

// imageVectors enumerates the periodic translation vectors to examine for
// a cutoff rmax: the zero shift first, then the remaining shifts from
// {-1,0,1} per periodic axis. Fails when any periodic plane distance is at
// most twice the cutoff, since then one image layer is not enough.
func imageVectors(bx box.Box, rmax float32) ([]box.Vec3, error) {
	plane := bx.NearestPlaneDistance()
	periodic := bx.Periodic()
	if (periodic[0] && plane.X <= 2*rmax) ||
		(periodic[1] && plane.Y <= 2*rmax) ||
		(!bx.Is2D() && periodic[2] && plane.Z <= 2*rmax) {
		return nil, fmt.Errorf("%w: r_max %g needs plane distances above %g", ErrBoxTooSmall, rmax, 2*rmax)
	}

	numPeriodic := 0
	if periodic[0] {
		numPeriodic++
	}
	if periodic[1] {
		numPeriodic++
	}
	if !bx.Is2D() && periodic[2] {
		numPeriodic++
	}
	numImages := 1
	for d := 0; d < numPeriodic; d++ {
		numImages *= 3
	}

	la := bx.LatticeVector(0)
	lb := bx.LatticeVector(1)
	var lc box.Vec3
	if !bx.Is2D() {
		lc = bx.LatticeVector(2)
	}

	images := make([]box.Vec3, 1, numImages)
	for i := -1; i <= 1 && len(images) < numImages; i++ {
		for j := -1; j <= 1 && len(images) < numImages; j++ {
			for k := -1; k <= 1 && len(images) < numImages; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				if i != 0 && !periodic[0] {
					continue
				}
				if j != 0 && !periodic[1] {
					continue
				}
				if k != 0 && (bx.Is2D() || !periodic[2]) {
					continue
				}
				images = append(images,
					la.Scale(float32(i)).Add(lb.Scale(float32(j))).Add(lc.Scale(float32(k))))
			}
		}
	}
	return images, nil
}
