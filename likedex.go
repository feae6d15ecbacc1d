package likedex

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/hupe1980/likedex/bitmap"
	"github.com/hupe1980/likedex/column"
	"github.com/hupe1980/likedex/core"
	"github.com/hupe1980/likedex/store"
)

// Stats is a read-only snapshot of the engine's state.
type Stats struct {
	// LiveRecords is the number of records visible to queries.
	LiveRecords int
	// SlotCount is the size of the slot table, tombstones included.
	SlotCount int
	// FreeSlots is the number of slots awaiting reuse.
	FreeSlots int
	// Tombstones is the number of deleted-but-unreclaimed slots.
	Tombstones int
	// MaxIndexedLength is the longest indexed value per column.
	MaxIndexedLength []int
	// Inserts, Updates, Deletes and Cleanups count operations since
	// creation. Cleanup does not reset them.
	Inserts  uint64
	Updates  uint64
	Deletes  uint64
	Cleanups uint64
}

// Index is the pattern-matching index engine over one or more text
// columns. All slot numbering is shared across columns: one slot is
// one logical row.
//
// Queries may run concurrently; Insert, Delete, Update, Build and
// cleanup take exclusive access and appear atomic to readers.
type Index struct {
	mu sync.RWMutex

	opts    Options
	columns []*column.Index
	records *store.Store

	logger  *Logger
	metrics MetricsCollector
}

// New creates an empty index over numColumns text columns.
func New(numColumns int, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if numColumns < 1 {
		return nil, fmt.Errorf("likedex: need at least one column, got %d", numColumns)
	}
	if opts.MaxIndexedLength < 1 {
		return nil, fmt.Errorf("likedex: invalid max indexed length %d", opts.MaxIndexedLength)
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}

	ix := &Index{
		opts:    opts,
		records: store.New(numColumns),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	ix.columns = ix.newColumns(numColumns)
	return ix, nil
}

func (ix *Index) newColumns(n int) []*column.Index {
	cols := make([]*column.Index, n)
	for i := range cols {
		cols[i] = column.New(ix.opts.MaxIndexedLength, ix.opts.CaseFolding)
	}
	return cols
}

// Build populates the index from a full scan of the source rows,
// discarding any previous contents. Each row yields its external id
// and one text value per column.
func (ix *Index) Build(ctx context.Context, rows iter.Seq2[uint64, []string]) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	start := time.Now()

	ix.records = store.New(len(ix.columns))
	ix.columns = ix.newColumns(len(ix.columns))

	n := 0
	for id, vals := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ix.insertLocked(id, vals); err != nil {
			return err
		}
		n++
	}

	ix.logger.Debug("index built", "records", n, "took", time.Since(start))
	return nil
}

// Insert indexes a new record. Returns ErrDuplicateID when id is
// already live.
func (ix *Index) Insert(id uint64, vals []string) error {
	start := time.Now()

	ix.mu.Lock()
	err := ix.insertLocked(id, vals)
	ix.mu.Unlock()

	ix.metrics.RecordInsert(time.Since(start), err)
	return err
}

func (ix *Index) insertLocked(id uint64, vals []string) error {
	if len(vals) != len(ix.columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrColumnOutOfRange, len(vals), len(ix.columns))
	}
	if ix.records.Contains(id) {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}

	slot, old, reused := ix.records.Insert(id, vals)
	if reused {
		// The freed slot still sits in every bitmap its previous
		// value touched; withdraw those entries before re-indexing.
		for c, col := range ix.columns {
			col.Remove(slot, old[c])
		}
	}
	for c, col := range ix.columns {
		col.Add(slot, vals[c])
	}
	return nil
}

// Delete tombstones the record for id. Its bitmap entries persist
// until cleanup, but it never reappears in query results. Returns
// ErrNotFound when id is unknown; state is untouched in that case.
func (ix *Index) Delete(id uint64) error {
	start := time.Now()

	ix.mu.Lock()
	err := ix.deleteLocked(id)
	if err == nil {
		ix.maybeCleanupLocked()
	}
	ix.mu.Unlock()

	ix.metrics.RecordDelete(time.Since(start), err)
	return err
}

func (ix *Index) deleteLocked(id uint64) error {
	if _, ok := ix.records.Delete(id); !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Update replaces the record for id with new column values. It is a
// delete followed by an insert; bitmaps are never mutated in place.
func (ix *Index) Update(id uint64, vals []string) error {
	start := time.Now()

	ix.mu.Lock()
	err := ix.updateLocked(id, vals)
	if err == nil {
		ix.maybeCleanupLocked()
	}
	ix.mu.Unlock()

	ix.metrics.RecordUpdate(time.Since(start), err)
	return err
}

func (ix *Index) updateLocked(id uint64, vals []string) error {
	if len(vals) != len(ix.columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrColumnOutOfRange, len(vals), len(ix.columns))
	}
	if !ix.records.Contains(id) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if err := ix.deleteLocked(id); err != nil {
		return err
	}
	if err := ix.insertLocked(id, vals); err != nil {
		return err
	}
	ix.records.CountUpdate()
	return nil
}

// Query evaluates the conjunction of preds and returns the external
// ids of matching records. Predicate order never changes the result
// set; the planner reorders evaluation by estimated selectivity.
func (ix *Index) Query(ctx context.Context, preds []Predicate, optFns ...func(o *QueryOptions)) ([]uint64, error) {
	qopts := DefaultQueryOptions
	for _, fn := range optFns {
		fn(&qopts)
	}

	start := time.Now()

	ix.mu.RLock()
	ids, err := ix.queryLocked(ctx, preds, qopts)
	ix.mu.RUnlock()

	ix.metrics.RecordQuery(len(preds), len(ids), time.Since(start), err)
	return ids, err
}

func (ix *Index) queryLocked(ctx context.Context, preds []Predicate, qopts QueryOptions) ([]uint64, error) {
	result, err := ix.evaluateLocked(preds)
	if err != nil {
		return nil, err
	}
	return ix.materialize(ctx, result, qopts)
}

func (ix *Index) evaluateLocked(preds []Predicate) (*bitmap.Set, error) {
	planned, err := ix.planPredicates(preds)
	if err != nil {
		return nil, err
	}
	result := ix.evaluateChain(planned)
	ix.excludeTombstones(result)
	return result, nil
}

// QueryAny evaluates each group as an independent AND-chain and
// returns the union of their results.
func (ix *Index) QueryAny(ctx context.Context, groups [][]Predicate, optFns ...func(o *QueryOptions)) ([]uint64, error) {
	qopts := DefaultQueryOptions
	for _, fn := range optFns {
		fn(&qopts)
	}

	start := time.Now()

	ix.mu.RLock()
	ids, err := ix.queryAnyLocked(ctx, groups, qopts)
	ix.mu.RUnlock()

	n := 0
	for _, g := range groups {
		n += len(g)
	}
	ix.metrics.RecordQuery(n, len(ids), time.Since(start), err)
	return ids, err
}

func (ix *Index) queryAnyLocked(ctx context.Context, groups [][]Predicate, qopts QueryOptions) ([]uint64, error) {
	// Validate every group before evaluating any of them.
	planned := make([][]plannedPredicate, len(groups))
	for i, g := range groups {
		p, err := ix.planPredicates(g)
		if err != nil {
			return nil, err
		}
		planned[i] = p
	}

	result := bitmap.New()
	for _, p := range planned {
		result.Or(ix.evaluateChain(p))
	}
	ix.excludeTombstones(result)

	return ix.materialize(ctx, result, qopts)
}

// Count returns the number of records matching the conjunction of
// preds without materializing ids.
func (ix *Index) Count(ctx context.Context, preds []Predicate) (uint64, error) {
	_ = ctx

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	result, err := ix.evaluateLocked(preds)
	if err != nil {
		return 0, err
	}
	return result.Cardinality(), nil
}

// Exists reports whether any record matches the conjunction of preds.
func (ix *Index) Exists(ctx context.Context, preds []Predicate) (bool, error) {
	n, err := ix.Count(ctx, preds)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Stats returns a read-only snapshot of the engine's state.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	maxLens := make([]int, len(ix.columns))
	for i, col := range ix.columns {
		maxLens[i] = col.MaxLen()
	}

	counters := ix.records.CountersSnapshot()
	return Stats{
		LiveRecords:      ix.records.LiveCount(),
		SlotCount:        ix.records.SlotCount(),
		FreeSlots:        ix.records.FreeCount(),
		Tombstones:       ix.records.TombstoneCount(),
		MaxIndexedLength: maxLens,
		Inserts:          counters.Inserts,
		Updates:          counters.Updates,
		Deletes:          counters.Deletes,
		Cleanups:         counters.Cleanups,
	}
}

// ForceCleanup rebuilds all bitmaps from live records regardless of
// the tombstone threshold. Diagnostic hook; cleanup otherwise runs
// automatically once tombstones cross the configured threshold.
func (ix *Index) ForceCleanup() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.cleanupLocked()
}

func (ix *Index) maybeCleanupLocked() {
	if ix.records.TombstoneCount() >= ix.opts.TombstoneCleanupThreshold {
		ix.cleanupLocked()
	}
}

// cleanupLocked rebuilds every bitmap from live slots only and
// renumbers slots densely. Queries are excluded for the duration by
// the write lock.
func (ix *Index) cleanupLocked() {
	start := time.Now()
	reclaimed := ix.records.TombstoneCount()

	cols := ix.newColumns(len(ix.columns))
	ix.records.Compact(func(slot core.Slot, id uint64, vals []string) {
		for c := range cols {
			cols[c].Add(slot, vals[c])
		}
	})
	ix.columns = cols
	ix.records.CountCleanup()

	ix.logger.Debug("tombstone cleanup",
		"reclaimed", reclaimed,
		"live", ix.records.LiveCount(),
		"took", time.Since(start),
	)
	ix.metrics.RecordCleanup(reclaimed, time.Since(start))
}

// Snapshot writes the live source rows to w. Bitmap structures are
// never serialized; Restore rebuilds them from the rows.
func (ix *Index) Snapshot(w io.Writer) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.records.Save(w)
}

// Restore creates an index from a snapshot written by Snapshot,
// rebuilding every bitmap from the decoded rows.
func Restore(r io.Reader, optFns ...func(o *Options)) (*Index, error) {
	var ix *Index
	cols, err := store.LoadRows(r, func(id uint64, vals []string) error {
		if ix == nil {
			var err error
			ix, err = New(len(vals), optFns...)
			if err != nil {
				return err
			}
		}
		return ix.insertLocked(id, vals)
	})
	if err != nil {
		return nil, err
	}
	if ix == nil {
		// Empty snapshot: the column count is still in the header.
		return New(cols, optFns...)
	}
	return ix, nil
}
