package likedex

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/likedex/bitmap"
)

// collectWorkers bounds the number of goroutines used for parallel
// materialization.
const collectWorkers = 4

// materialize converts a result set of slots into external ids,
// honoring the limit and sort options. Above the parallel threshold
// the slot array is split into disjoint chunks translated
// concurrently and concatenated; a single sort at the end restores
// canonical order. The split is a throughput optimization only.
func (ix *Index) materialize(ctx context.Context, set *bitmap.Set, opts QueryOptions) ([]uint64, error) {
	card := set.Cardinality()
	if card == 0 {
		return nil, nil
	}

	limited := opts.Limit > 0 && uint64(opts.Limit) < card

	var ids []uint64
	switch {
	case limited:
		// Early exit: stop iterating as soon as enough ids are
		// collected. Never touches the stored bitmaps.
		ids = make([]uint64, 0, opts.Limit)
		for slot := range set.Iterator() {
			ids = append(ids, ix.records.IDAt(slot))
			if len(ids) >= opts.Limit {
				break
			}
		}

	case card >= uint64(ix.opts.ParallelCollectThreshold):
		slots := set.ToArray()
		ids = make([]uint64, len(slots))

		g, gctx := errgroup.WithContext(ctx)
		chunk := (len(slots) + collectWorkers - 1) / collectWorkers
		for lo := 0; lo < len(slots); lo += chunk {
			hi := min(lo+chunk, len(slots))
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				for i := lo; i < hi; i++ {
					ids[i] = ix.records.IDAt(slots[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

	default:
		ids = make([]uint64, 0, card)
		for slot := range set.Iterator() {
			ids = append(ids, ix.records.IDAt(slot))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Sorted {
		slices.Sort(ids)
	}
	return ids, nil
}
