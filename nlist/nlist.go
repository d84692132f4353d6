// Package nlist implements the neighbor bond list: a compact array of
// (query, point, distance, weight) bonds sorted by query index, stored as
// parallel columns with per-query segment and count indexes.
package nlist

import (
	"errors"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
)

var (
	// ErrUnsorted is returned when bond construction receives query indices
	// that are not non-decreasing.
	ErrUnsorted = errors.New("query indices must be sorted")

	// ErrInconsistentSize is returned when a list's bookkeeping disagrees
	// with externally declared sizes.
	ErrInconsistentSize = errors.New("inconsistent array sizes")
)

// ErrIndexOutOfRange indicates a bond index exceeding its declared bound.
type ErrIndexOutOfRange struct {
	Kind  string // "query" or "point"
	Index uint32
	Bound uint32
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Bound)
}

// Bond is a single neighbor pair. Bonds order lexicographically by
// (QueryIdx, Distance, PointIdx).
type Bond struct {
	QueryIdx uint32
	PointIdx uint32
	Distance float32
	Weight   float32
}

// Terminator is the sentinel bond returned by iterators after exhaustion.
var Terminator = Bond{
	QueryIdx: math.MaxUint32,
	PointIdx: math.MaxUint32,
	Distance: float32(math.NaN()),
}

// IsTerminator reports whether b is the iteration sentinel.
func (b Bond) IsTerminator() bool {
	return b.QueryIdx == math.MaxUint32 && b.PointIdx == math.MaxUint32
}

// Less reports whether b orders before o by (QueryIdx, Distance, PointIdx).
func (b Bond) Less(o Bond) bool {
	if b.QueryIdx != o.QueryIdx {
		return b.QueryIdx < o.QueryIdx
	}
	if b.Distance != o.Distance {
		return b.Distance < o.Distance
	}
	return b.PointIdx < o.PointIdx
}

// List is a bond list: parallel columns sorted by query index. Mutating
// operations (Filter, FilterR, Resize) are not safe to call concurrently
// with readers.
type List struct {
	queryIndices []uint32
	pointIndices []uint32
	distances    []float32
	weights      []float32

	numQueryPoints int
	numPoints      int

	// segments[q] is the first bond index of query q (the insertion
	// position when q has no bonds); counts[q] is its bond count. Both are
	// recomputed lazily after mutation.
	segments []uint32
	counts   []uint32
	dirty    bool
}

// FromArrays builds a list from flat columns. The query index column must
// be non-decreasing and all indices must be within the declared bounds.
// The input slices are copied.
func FromArrays(queryIndices, pointIndices []uint32, distances, weights []float32, numQueryPoints, numPoints int) (*List, error) {
	n := len(queryIndices)
	if len(pointIndices) != n || len(distances) != n || len(weights) != n {
		return nil, ErrInconsistentSize
	}

	l := &List{
		queryIndices:   append([]uint32(nil), queryIndices...),
		pointIndices:   append([]uint32(nil), pointIndices...),
		distances:      append([]float32(nil), distances...),
		weights:        append([]float32(nil), weights...),
		numQueryPoints: numQueryPoints,
		numPoints:      numPoints,
		dirty:          true,
	}
	if err := l.check(); err != nil {
		return nil, err
	}
	return l, nil
}

// FromBonds builds a list from bonds already sorted by query index.
func FromBonds(bonds []Bond, numQueryPoints, numPoints int) (*List, error) {
	l := &List{
		queryIndices:   make([]uint32, len(bonds)),
		pointIndices:   make([]uint32, len(bonds)),
		distances:      make([]float32, len(bonds)),
		weights:        make([]float32, len(bonds)),
		numQueryPoints: numQueryPoints,
		numPoints:      numPoints,
		dirty:          true,
	}
	for i, b := range bonds {
		l.queryIndices[i] = b.QueryIdx
		l.pointIndices[i] = b.PointIdx
		l.distances[i] = b.Distance
		l.weights[i] = b.Weight
	}
	if err := l.check(); err != nil {
		return nil, err
	}
	return l, nil
}

// check validates sortedness and index bounds.
func (l *List) check() error {
	var last uint32
	for i, q := range l.queryIndices {
		if i > 0 && q < last {
			return ErrUnsorted
		}
		if q >= uint32(l.numQueryPoints) {
			return &ErrIndexOutOfRange{Kind: "query", Index: q, Bound: uint32(l.numQueryPoints)}
		}
		if p := l.pointIndices[i]; p >= uint32(l.numPoints) {
			return &ErrIndexOutOfRange{Kind: "point", Index: p, Bound: uint32(l.numPoints)}
		}
		last = q
	}
	return nil
}

// NumBonds returns the number of bonds.
func (l *List) NumBonds() int {
	return len(l.queryIndices)
}

// NumQueryPoints returns the declared number of query points.
func (l *List) NumQueryPoints() int {
	return l.numQueryPoints
}

// NumPoints returns the declared number of reference points.
func (l *List) NumPoints() int {
	return l.numPoints
}

// QueryIndices returns the query index column. The slice is a view;
// callers must not mutate it.
func (l *List) QueryIndices() []uint32 {
	return l.queryIndices
}

// PointIndices returns the point index column as a view.
func (l *List) PointIndices() []uint32 {
	return l.pointIndices
}

// Distances returns the distance column as a view.
func (l *List) Distances() []float32 {
	return l.distances
}

// Weights returns the weight column as a view.
func (l *List) Weights() []float32 {
	return l.weights
}

// Bond returns bond i as a value.
func (l *List) Bond(i int) Bond {
	return Bond{
		QueryIdx: l.queryIndices[i],
		PointIdx: l.pointIndices[i],
		Distance: l.distances[i],
		Weight:   l.weights[i],
	}
}

// Segments returns, per query point, the first bond index of that query.
func (l *List) Segments() []uint32 {
	l.updateSegmentCounts()
	return l.segments
}

// Counts returns, per query point, the number of bonds of that query.
func (l *List) Counts() []uint32 {
	l.updateSegmentCounts()
	return l.counts
}

// updateSegmentCounts recomputes the per-query bookkeeping.
func (l *List) updateSegmentCounts() {
	if !l.dirty && l.segments != nil {
		return
	}
	if cap(l.counts) < l.numQueryPoints {
		l.counts = make([]uint32, l.numQueryPoints)
		l.segments = make([]uint32, l.numQueryPoints)
	} else {
		l.counts = l.counts[:l.numQueryPoints]
		l.segments = l.segments[:l.numQueryPoints]
		clear(l.counts)
	}
	for _, q := range l.queryIndices {
		l.counts[q]++
	}
	var offset uint32
	for q := 0; q < l.numQueryPoints; q++ {
		l.segments[q] = offset
		offset += l.counts[q]
	}
	l.dirty = false
}

// FindFirstIndex returns the index of the first bond whose query index is
// q, or the position where such a bond would be inserted when q has none.
func (l *List) FindFirstIndex(q uint32) int {
	lo, hi := 0, len(l.queryIndices)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.queryIndices[mid] < q {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Filter compacts the list in place, keeping bond i iff mask has bit i
// set. Ordering is preserved. Returns the change in bond count.
func (l *List) Filter(mask *bitset.BitSet) int {
	return l.compact(func(i int) bool {
		return mask.Test(uint(i))
	})
}

// FilterR compacts the list in place, keeping bonds whose distance lies
// strictly inside (rmin, rmax). Returns the change in bond count.
func (l *List) FilterR(rmin, rmax float32) int {
	return l.compact(func(i int) bool {
		return l.distances[i] > rmin && l.distances[i] < rmax
	})
}

func (l *List) compact(keep func(i int) bool) int {
	old := l.NumBonds()
	var good int
	for i := 0; i < old; i++ {
		if keep(i) {
			l.queryIndices[good] = l.queryIndices[i]
			l.pointIndices[good] = l.pointIndices[i]
			l.distances[good] = l.distances[i]
			l.weights[good] = l.weights[i]
			good++
		}
	}
	l.Resize(good, false)
	return good - old
}

// Resize adjusts the list to hold numBonds bonds. When reset is true any
// retained content is zeroed. Per-query bookkeeping is invalidated.
func (l *List) Resize(numBonds int, reset bool) {
	l.queryIndices = resizeU32(l.queryIndices, numBonds, reset)
	l.pointIndices = resizeU32(l.pointIndices, numBonds, reset)
	l.distances = resizeF32(l.distances, numBonds, reset)
	l.weights = resizeF32(l.weights, numBonds, reset)
	l.dirty = true
}

func resizeU32(s []uint32, n int, reset bool) []uint32 {
	if n <= cap(s) {
		s = s[:n]
	} else {
		grown := make([]uint32, n)
		copy(grown, s)
		s = grown
	}
	if reset {
		clear(s)
	}
	return s
}

func resizeF32(s []float32, n int, reset bool) []float32 {
	if n <= cap(s) {
		s = s[:n]
	} else {
		grown := make([]float32, n)
		copy(grown, s)
		s = grown
	}
	if reset {
		clear(s)
	}
	return s
}

// Validate checks the list bookkeeping against externally declared sizes.
func (l *List) Validate(numQueryPoints, numPoints int) error {
	if numQueryPoints != l.numQueryPoints || numPoints != l.numPoints {
		return fmt.Errorf("%w: have (%d query points, %d points), declared (%d, %d)",
			ErrInconsistentSize, l.numQueryPoints, l.numPoints, numQueryPoints, numPoints)
	}
	return nil
}

// Copy returns a deep copy of the list.
func (l *List) Copy() *List {
	return &List{
		queryIndices:   append([]uint32(nil), l.queryIndices...),
		pointIndices:   append([]uint32(nil), l.pointIndices...),
		distances:      append([]float32(nil), l.distances...),
		weights:        append([]float32(nil), l.weights...),
		numQueryPoints: l.numQueryPoints,
		numPoints:      l.numPoints,
		dirty:          true,
	}
}
