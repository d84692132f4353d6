package periq

import (
	"sort"

	"github.com/periq/periq/aabb"
	"github.com/periq/periq/box"
	"github.com/periq/periq/internal/math32"
	"github.com/periq/periq/internal/pool"
	"github.com/periq/periq/nlist"
)

// BondIterator is a stateful producer of bonds for a fixed query context.
// Next returns the Terminator on and after exhaustion; End reports true
// only after Next has returned the Terminator at least once, since the
// search cannot know completion until traversal overruns.
type BondIterator interface {
	Next() NeighborBond
	End() bool
}

// bondBufPool recycles the per-query collection buffers of k-NN iterators.
var bondBufPool = pool.NewSlice[NeighborBond](pool.DefaultBondCapacity)

// QueryIterator iterates the neighbors of every query point in sequence.
// Self-pair exclusion and the per-query bond cap for nearest-neighbor
// queries are applied here, on top of the raw per-query iterators.
type QueryIterator struct {
	q           *AABBQuery
	queryPoints []box.Vec3
	args        QueryArgs
	images      []box.Vec3 // ball mode, shared by all per-query iterators

	cur      int
	inner    BondIterator
	yielded  int
	finished bool
}

var _ BondIterator = (*QueryIterator)(nil)

// Next returns the next bond across all query points.
func (qi *QueryIterator) Next() NeighborBond {
	if qi.finished {
		return Terminator
	}
	for {
		if qi.inner == nil {
			if qi.cur >= len(qi.queryPoints) {
				qi.finished = true
				return Terminator
			}
			qi.inner = qi.perQuery(qi.cur)
			qi.yielded = 0
			qi.cur++
		}
		b := qi.inner.Next()
		if b.IsTerminator() {
			qi.inner = nil
			continue
		}
		if qi.args.ExcludeII && b.QueryIdx == b.PointIdx {
			continue
		}
		if qi.args.Mode == ModeNearest && qi.yielded >= qi.args.NumNeighbors {
			continue
		}
		qi.yielded++
		return b
	}
}

// End reports whether iteration has completed.
func (qi *QueryIterator) End() bool {
	return qi.finished
}

// PerQuery replicates this iterator's query for a single query point.
// The returned iterator is raw: it applies neither self-pair exclusion nor
// the nearest-neighbor over-collection used by ToNeighborList.
func (qi *QueryIterator) PerQuery(i int) BondIterator {
	point := qi.queryPoints[i]
	if qi.q.bx.Is2D() {
		point.Z = 0
	}
	switch qi.args.Mode {
	case ModeNearest:
		return newKNNIterator(qi.q, uint32(i), point, qi.args.NumNeighbors, qi.args.RMax, qi.args.Scale)
	default:
		return newBallIterator(qi.q, uint32(i), point, qi.args.RMax, qi.images)
	}
}

// perQuery builds the internal per-query iterator, over-collecting one
// extra neighbor for nearest queries with self-exclusion so the requested
// count survives the dropped self pair.
func (qi *QueryIterator) perQuery(i int) BondIterator {
	point := qi.queryPoints[i]
	if qi.q.bx.Is2D() {
		point.Z = 0
	}
	switch qi.args.Mode {
	case ModeNearest:
		k := qi.args.NumNeighbors
		if qi.args.ExcludeII {
			k++
		}
		return newKNNIterator(qi.q, uint32(i), point, k, qi.args.RMax, qi.args.Scale)
	default:
		return newBallIterator(qi.q, uint32(i), point, qi.args.RMax, qi.images)
	}
}

// collectQuery drains the per-query iterator for query point i, applying
// exclusion and the nearest-mode cap, and hands surviving bonds to emit.
func (qi *QueryIterator) collectQuery(i int, emit func(NeighborBond)) {
	it := qi.perQuery(i)
	yielded := 0
	for {
		b := it.Next()
		if b.IsTerminator() {
			return
		}
		if qi.args.ExcludeII && b.QueryIdx == b.PointIdx {
			continue
		}
		if qi.args.Mode == ModeNearest && yielded >= qi.args.NumNeighbors {
			continue
		}
		emit(b)
		yielded++
	}
}

// ballIterator streams all points within a fixed cutoff of one query
// point. Output order follows (image, tree pre-order, bucket position);
// it is not sorted by distance. The image, node, and intra-leaf cursors
// are suspended between Next calls.
type ballIterator struct {
	q        *AABBQuery
	queryIdx uint32
	point    box.Vec3
	r        float32
	r2       float32
	images   []box.Vec3

	curImage int
	curNode  int
	curP     int
	finished bool
}

var _ BondIterator = (*ballIterator)(nil)

func newBallIterator(q *AABBQuery, queryIdx uint32, point box.Vec3, r float32, images []box.Vec3) *ballIterator {
	return &ballIterator{
		q:        q,
		queryIdx: queryIdx,
		point:    point,
		r:        r,
		r2:       r * r,
		images:   images,
	}
}

func (it *ballIterator) Next() NeighborBond {
	if it.finished {
		return Terminator
	}
	tree := it.q.tree
	for it.curImage < len(it.images) {
		posI := it.point.Add(it.images[it.curImage])
		sphere := aabb.Sphere{Center: posI, R: it.r}

		for it.curNode < tree.NumNodes() {
			if aabb.Overlap(tree.NodeAABB(it.curNode), sphere) {
				if tree.IsLeaf(it.curNode) {
					for it.curP < tree.NodeCount(it.curNode) {
						j := tree.NodeTag(it.curNode, it.curP)
						it.curP++

						d := it.q.pointAt(j).Sub(posI)
						d2 := d.LengthSq()
						if d2 < it.r2 {
							return NeighborBond{
								QueryIdx: it.queryIdx,
								PointIdx: j,
								Distance: math32.Sqrt(d2),
								Weight:   1,
							}
						}
					}
				}
				it.curNode++
			} else {
				it.curNode += tree.NodeSkip(it.curNode) + 1
			}
			it.curP = 0
		}
		it.curImage++
		it.curNode = 0
	}
	it.finished = true
	return Terminator
}

func (it *ballIterator) End() bool {
	return it.finished
}

// knnIterator finds the k nearest neighbors of one query point by adaptive
// radius expansion: ball queries are repeated at geometrically growing
// radii until enough neighbors are found or the radius would overrun half
// the minimum plane distance, then the collected set is sorted by
// (distance, point index) and drained. Each expansion re-queries from
// scratch; prior hits are re-found rather than carried over.
type knnIterator struct {
	q        *AABBQuery
	queryIdx uint32
	point    box.Vec3
	k        int
	r        float32
	scale    float32
	halfMin  float32

	buf      *[]NeighborBond
	pos      int
	primed   bool
	finished bool
}

var _ BondIterator = (*knnIterator)(nil)

func newKNNIterator(q *AABBQuery, queryIdx uint32, point box.Vec3, k int, r0, scale float32) *knnIterator {
	halfMin := q.bx.MinPlaneDistance() / 2
	if r0 <= 0 {
		r0 = halfMin / 10
	}
	if r0 >= halfMin {
		// Largest initial radius the image check admits.
		r0 = halfMin * 0.99
	}
	return &knnIterator{
		q:        q,
		queryIdx: queryIdx,
		point:    point,
		k:        k,
		r:        r0,
		scale:    scale,
		halfMin:  halfMin,
	}
}

func (it *knnIterator) Next() NeighborBond {
	if it.finished {
		return Terminator
	}
	if !it.primed {
		it.prime()
	}
	if it.pos < len(*it.buf) {
		b := (*it.buf)[it.pos]
		it.pos++
		return b
	}
	it.finished = true
	bondBufPool.Put(it.buf)
	it.buf = nil
	return Terminator
}

func (it *knnIterator) End() bool {
	return it.finished
}

// prime performs ball queries at growing radii until k neighbors are
// collected or the radius overruns, then sorts and trims the buffer.
func (it *knnIterator) prime() {
	it.primed = true
	it.buf = bondBufPool.Get()

	for {
		*it.buf = (*it.buf)[:0]
		images, err := imageVectors(it.q.bx, it.r)
		if err != nil {
			break
		}
		ball := newBallIterator(it.q, it.queryIdx, it.point, it.r, images)
		for b := ball.Next(); !b.IsTerminator(); b = ball.Next() {
			*it.buf = append(*it.buf, b)
		}

		if len(*it.buf) >= it.k {
			break
		}
		it.r *= it.scale
		if it.r >= it.halfMin {
			break
		}
	}

	buf := *it.buf
	sort.Slice(buf, func(a, b int) bool {
		if buf[a].Distance != buf[b].Distance {
			return buf[a].Distance < buf[b].Distance
		}
		return buf[a].PointIdx < buf[b].PointIdx
	})
	if len(buf) > it.k {
		*it.buf = buf[:it.k]
	}
}

// listIterator iterates the bonds of one query point out of a precomputed
// bond list, starting at the query's segment.
type listIterator struct {
	l        *nlist.List
	queryIdx uint32
	cur      int
	finished bool
}

var _ BondIterator = (*listIterator)(nil)

func newListIterator(l *nlist.List, queryIdx uint32) *listIterator {
	return &listIterator{
		l:        l,
		queryIdx: queryIdx,
		cur:      l.FindFirstIndex(queryIdx),
	}
}

func (it *listIterator) Next() NeighborBond {
	if it.cur >= it.l.NumBonds() || it.l.QueryIndices()[it.cur] != it.queryIdx {
		it.finished = true
		return Terminator
	}
	b := it.l.Bond(it.cur)
	it.cur++
	return b
}

func (it *listIterator) End() bool {
	return it.finished
}
