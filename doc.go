// Package periq answers spatial neighbor queries over particle systems in
// periodic simulation boxes.
//
// Given a box and a set of points, periq builds an AABB tree once and then
// answers two kinds of queries against it:
//
//   - Ball queries: all points within a cutoff distance of a query location.
//   - K-nearest-neighbor queries: the k closest points, found by adaptive
//     radius expansion.
//
// Results stream through iterators producing (query, point, distance) bonds,
// or materialize into a compact sorted NeighborList for repeated per-pair
// computations.
//
// # Quick start
//
//	bx := box.New(10, 10, 10)
//	nq := periq.NewAABBQuery(bx, points)
//
//	it, err := nq.QueryBall(queryPoints, 1.5, false)
//	if err != nil {
//	    panic(err)
//	}
//	for b := it.Next(); !b.IsTerminator(); b = it.Next() {
//	    process(b)
//	}
//
// Materialize a query into a bond list sorted by (query, distance, point):
//
//	it, _ := nq.QueryKNN(queryPoints, 6, true)
//	nl, err := it.ToNeighborList(ctx)
//
// Generic queries dispatch on a QueryArgs record; the mode is inferred from
// the arguments when unset:
//
//	args := periq.NewQueryArgs()
//	args.RMax = 1.5 // implies a ball query
//	it, err := nq.Query(queryPoints, args)
//
// The driver functions ForEachBond and ForEachQuery unify iteration over
// precomputed bond lists and live queries, optionally fanning out across
// query points in parallel.
//
// Boxes, point slices, and trees are read-only after construction and may
// be shared across goroutines; each iterator owns its own state.
package periq
