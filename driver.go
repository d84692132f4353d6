package periq

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/periq/periq/box"
	"github.com/periq/periq/nlist"
)

// ForEachBond invokes fn on every neighbor bond. When nl is non-nil its
// bonds are iterated directly and nq is only consulted for bookkeeping;
// otherwise a live query is driven. Within one query point the bond order
// of the underlying iterator is preserved; across query points only the
// bond-list path guarantees ascending query index. The parallel path
// partitions disjoint ranges, so fn must tolerate concurrent invocation.
func ForEachBond(ctx context.Context, nq NeighborQuery, queryPoints []box.Vec3, args QueryArgs, nl *nlist.List, fn func(NeighborBond), opts ...Option) error {
	o := applyOptions(opts)

	if nl != nil {
		return forRange(ctx, nl.NumBonds(), o, func(_, lo, hi int) {
			for b := lo; b < hi; b++ {
				fn(nl.Bond(b))
			}
		})
	}

	it, err := nq.Query(queryPoints, args)
	if err != nil {
		return err
	}
	return forRange(ctx, len(queryPoints), o, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			it.collectQuery(i, fn)
		}
	})
}

// ForEachQuery invokes fn once per query point with an iterator over that
// point's neighbors, for computations that pre- or post-process on a
// per-query basis. fn is expected to drive its iterator to exhaustion.
// The parallel path runs one range of whole queries per task.
func ForEachQuery(ctx context.Context, nq NeighborQuery, queryPoints []box.Vec3, args QueryArgs, nl *nlist.List, fn func(i int, it BondIterator), opts ...Option) error {
	o := applyOptions(opts)

	if nl != nil {
		return forRange(ctx, len(queryPoints), o, func(_, lo, hi int) {
			for i := lo; i < hi; i++ {
				fn(i, newListIterator(nl, uint32(i)))
			}
		})
	}

	it, err := nq.Query(queryPoints, args)
	if err != nil {
		return err
	}
	return forRange(ctx, len(queryPoints), o, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i, it.PerQuery(i))
		}
	})
}

// forRange splits [0, n) into contiguous chunks and runs body on each,
// sequentially or fanned out across workers. body receives the worker
// index so callers can keep per-task state without synchronization.
func forRange(ctx context.Context, n int, o options, body func(w, lo, hi int)) error {
	if !o.parallel || o.maxProcs <= 1 || n <= 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		body(0, 0, n)
		return nil
	}

	workers := o.maxProcs
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			body(w, lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// ToNeighborList materializes the query into a bond list: bonds are
// collected per query point into per-task buffers, flattened, sorted by
// (query index, distance, point index), and stored as columns. For
// nearest-neighbor queries with self-exclusion the requested neighbor
// count is honored by over-collecting one bond per query before dropping
// self pairs.
func (qi *QueryIterator) ToNeighborList(ctx context.Context, opts ...Option) (*nlist.List, error) {
	o := qi.q.opts
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	n := len(qi.queryPoints)
	workers := o.maxProcs
	if !o.parallel || workers < 1 {
		workers = 1
	}
	if workers > n && n > 0 {
		workers = n
	}

	locals := make([][]NeighborBond, workers)
	err := forRange(ctx, n, options{parallel: o.parallel, maxProcs: workers, logger: o.logger}, func(w, lo, hi int) {
		local := locals[w]
		for i := lo; i < hi; i++ {
			qi.collectQuery(i, func(b NeighborBond) {
				local = append(local, b)
			})
		}
		locals[w] = local
	})
	if err != nil {
		o.logger.LogMaterialize(ctx, 0, err)
		return nil, err
	}

	var total int
	for _, l := range locals {
		total += len(l)
	}
	bonds := make([]NeighborBond, 0, total)
	for _, l := range locals {
		bonds = append(bonds, l...)
	}
	sort.Slice(bonds, func(a, b int) bool {
		return bonds[a].Less(bonds[b])
	})

	list, err := nlist.FromBonds(bonds, n, qi.q.NumPoints())
	o.logger.LogMaterialize(ctx, len(bonds), err)
	return list, err
}
