package likedex

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(m map[uint64][]string) iter.Seq2[uint64, []string] {
	return func(yield func(uint64, []string) bool) {
		for id, vals := range m {
			if !yield(id, vals) {
				return
			}
		}
	}
}

// newNameIndex builds a single-column index over a small name corpus.
func newNameIndex(t *testing.T, optFns ...func(o *Options)) *Index {
	t.Helper()

	ix, err := New(1, optFns...)
	require.NoError(t, err)

	err = ix.Build(context.Background(), rowsOf(map[uint64][]string{
		1: {"alice"},
		2: {"bob"},
		3: {"alexandra"},
		4: {"abcd"},
	}))
	require.NoError(t, err)
	return ix
}

func like(col int, pat string) Predicate {
	return Predicate{Column: col, Pattern: pat}
}

func TestQuerySingleColumn(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	tests := []struct {
		pattern string
		want    []uint64
	}{
		{"al%", []uint64{1, 3}},
		{"%ob", []uint64{2}},
		{"a_i%", []uint64{1}},
		{"____", []uint64{4}},
		{"alice", []uint64{1}},
		{"%a%d%", []uint64{3, 4}},
		{"a%a", []uint64{3}},
		{"%", []uint64{1, 2, 3, 4}},
		{"%zzz%", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := ix.Query(ctx, []Predicate{like(0, tt.pattern)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryAfterDelete(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Delete(1))

	got, err := ix.Query(ctx, []Predicate{like(0, "al%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, got)

	// The deleted record is gone from every pattern, including the
	// full scan.
	got, err = ix.Query(ctx, []Predicate{like(0, "%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 4}, got)
}

func TestQueryMultiColumn(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, rowsOf(map[uint64][]string{
		1: {"alice", "engineering"},
		2: {"bob", "engineering"},
		3: {"alexandra", "sales"},
	})))

	got, err := ix.Query(ctx, []Predicate{
		like(0, "a%"),
		like(1, "eng%"),
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, got)
}

func TestQueryOrderInvariance(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, rowsOf(map[uint64][]string{
		1: {"alice", "engineering"},
		2: {"alina", "engineering"},
		3: {"bob", "engineering"},
		4: {"alice", "sales"},
	})))

	preds := []Predicate{
		like(0, "%li%"),  // substring, evaluated last
		like(1, "eng%"),  // anchored prefix
		like(0, "ali__"), // exact shape, evaluated first
	}

	want, err := ix.Query(ctx, preds)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, want)

	// Every permutation of the same predicates yields the same set.
	perms := [][]Predicate{
		{preds[1], preds[2], preds[0]},
		{preds[2], preds[0], preds[1]},
		{preds[2], preds[1], preds[0]},
	}
	for i, p := range perms {
		got, err := ix.Query(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, want, got, "permutation %d", i)
	}
}

func TestQueryNoPredicates(t *testing.T) {
	ix := newNameIndex(t)

	got, err := ix.Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4}, got)
}

func TestQueryNegate(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	got, err := ix.Query(ctx, []Predicate{
		{Column: 0, Pattern: "al%", Negate: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 4}, got)

	// Negation composes with other predicates.
	got, err = ix.Query(ctx, []Predicate{
		like(0, "a%"),
		{Column: 0, Pattern: "%a", Negate: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 4}, got)
}

func TestQueryNegateExcludesTombstones(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Delete(2))

	// bob's slot matches NOT LIKE 'al%' but is tombstoned.
	got, err := ix.Query(ctx, []Predicate{
		{Column: 0, Pattern: "al%", Negate: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, got)
}

func TestQueryCaseFold(t *testing.T) {
	ix, err := New(1)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, rowsOf(map[uint64][]string{
		1: {"Alice"},
		2: {"ALINA"},
		3: {"bob"},
	})))

	got, err := ix.Query(ctx, []Predicate{like(0, "ali%")})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ix.Query(ctx, []Predicate{
		{Column: 0, Pattern: "ALI%", CaseFold: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, got)
}

func TestQueryCaseFoldDisabled(t *testing.T) {
	ix, err := New(1, func(o *Options) { o.CaseFolding = false })
	require.NoError(t, err)

	require.NoError(t, ix.Insert(1, []string{"alice"}))

	_, err = ix.Query(context.Background(), []Predicate{
		{Column: 0, Pattern: "ali%", CaseFold: true},
	})
	assert.ErrorIs(t, err, ErrCaseFoldingDisabled)

	// Case-sensitive queries still work.
	got, err := ix.Query(context.Background(), []Predicate{like(0, "ali%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, got)
}

func TestQueryValidationErrors(t *testing.T) {
	ix, err := New(1, func(o *Options) { o.MaxPatternLength = 8 })
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ix.Query(ctx, []Predicate{like(2, "a%")})
	assert.ErrorIs(t, err, ErrColumnOutOfRange)

	_, err = ix.Query(ctx, []Predicate{like(0, "waytoolongpattern")})
	var invalid *ErrInvalidPattern
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "pattern too long", invalid.Reason)

	_, err = ix.Query(ctx, []Predicate{like(0, `abc\`)})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "malformed escape", invalid.Reason)
}

func TestQueryLimit(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	got, err := ix.Query(ctx, []Predicate{like(0, "%")}, WithLimit(2))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// A limit above the result size returns everything.
	got, err = ix.Query(ctx, []Predicate{like(0, "%")}, WithLimit(100))
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestQueryUnsorted(t *testing.T) {
	ix := newNameIndex(t)

	got, err := ix.Query(context.Background(), []Predicate{like(0, "%")}, WithoutSort())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2, 3, 4}, got)
}

func TestQueryParallelCollect(t *testing.T) {
	ix, err := New(1, func(o *Options) { o.ParallelCollectThreshold = 2 })
	require.NoError(t, err)
	ctx := context.Background()

	want := make([]uint64, 0, 64)
	for id := uint64(1); id <= 64; id++ {
		require.NoError(t, ix.Insert(id, []string{fmt.Sprintf("value-%03d", id)}))
		want = append(want, id)
	}

	got, err := ix.Query(ctx, []Predicate{like(0, "value-%")})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestInsertDuplicate(t *testing.T) {
	ix, err := New(1)
	require.NoError(t, err)

	require.NoError(t, ix.Insert(1, []string{"a"}))
	assert.ErrorIs(t, ix.Insert(1, []string{"b"}), ErrDuplicateID)

	err = ix.Insert(2, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrColumnOutOfRange)
}

func TestDeleteUnknown(t *testing.T) {
	ix, err := New(1)
	require.NoError(t, err)

	assert.ErrorIs(t, ix.Delete(42), ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Update(2, []string{"robert"}))

	got, err := ix.Query(ctx, []Predicate{like(0, "rob%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, got)

	got, err = ix.Query(ctx, []Predicate{like(0, "bob")})
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, ix.Update(42, []string{"x"}), ErrNotFound)

	st := ix.Stats()
	assert.Equal(t, uint64(1), st.Updates)
	assert.Equal(t, uint64(4), st.Inserts)
	assert.Equal(t, uint64(0), st.Deletes)
}

// A reused slot must not inherit the previous value's bitmap entries.
func TestSlotReuse(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Delete(4)) // abcd
	require.NoError(t, ix.Insert(9, []string{"xyz"}))

	got, err := ix.Query(ctx, []Predicate{like(0, "abcd")})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ix.Query(ctx, []Predicate{like(0, "a%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, got)

	got, err = ix.Query(ctx, []Predicate{like(0, "x%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, got)

	st := ix.Stats()
	assert.Equal(t, 4, st.SlotCount)
	assert.Equal(t, 0, st.FreeSlots)
	assert.Equal(t, 0, st.Tombstones)
}

func TestCleanupThreshold(t *testing.T) {
	ix, err := New(1, func(o *Options) { o.TombstoneCleanupThreshold = 2 })
	require.NoError(t, err)
	ctx := context.Background()

	for id := uint64(1); id <= 4; id++ {
		require.NoError(t, ix.Insert(id, []string{fmt.Sprintf("v%d", id)}))
	}

	require.NoError(t, ix.Delete(1))
	st := ix.Stats()
	assert.Equal(t, 1, st.Tombstones)
	assert.Equal(t, uint64(0), st.Cleanups)

	// Second delete crosses the threshold and triggers a rebuild.
	require.NoError(t, ix.Delete(2))
	st = ix.Stats()
	assert.Equal(t, uint64(1), st.Cleanups)
	assert.Equal(t, 0, st.Tombstones)
	assert.Equal(t, 0, st.FreeSlots)
	assert.Equal(t, 2, st.SlotCount)
	assert.Equal(t, 2, st.LiveRecords)

	// Queries see exactly the survivors.
	got, err := ix.Query(ctx, []Predicate{like(0, "v%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, got)
}

func TestForceCleanup(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Delete(2))
	ix.ForceCleanup()

	st := ix.Stats()
	assert.Equal(t, 0, st.Tombstones)
	assert.Equal(t, 3, st.SlotCount)
	assert.Equal(t, uint64(1), st.Cleanups)

	got, err := ix.Query(ctx, []Predicate{like(0, "%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3, 4}, got)
}

func TestCountAndExists(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	n, err := ix.Count(ctx, []Predicate{like(0, "al%")})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	ok, err := ix.Exists(ctx, []Predicate{like(0, "bob")})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ix.Exists(ctx, []Predicate{like(0, "zzz%")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryAny(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	got, err := ix.QueryAny(ctx, [][]Predicate{
		{like(0, "al%")},
		{like(0, "%ob")},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, got)

	// A bad group fails the whole call before any evaluation.
	_, err = ix.QueryAny(ctx, [][]Predicate{
		{like(0, "al%")},
		{like(5, "x")},
	})
	assert.ErrorIs(t, err, ErrColumnOutOfRange)
}

func TestBuildReplacesContents(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, rowsOf(map[uint64][]string{
		7: {"carol"},
	})))

	got, err := ix.Query(ctx, []Predicate{like(0, "%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, got)

	st := ix.Stats()
	assert.Equal(t, 1, st.LiveRecords)
}

func TestTruncatedValues(t *testing.T) {
	ix, err := New(1, func(o *Options) { o.MaxIndexedLength = 4 })
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Insert(1, []string{"abcdefgh"}))

	// The value behaves exactly like its indexed prefix.
	got, err := ix.Query(ctx, []Predicate{like(0, "abcd")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, got)

	got, err = ix.Query(ctx, []Predicate{like(0, "abcdefgh")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewValidation(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	_, err = New(1, func(o *Options) { o.MaxIndexedLength = 0 })
	assert.Error(t, err)
}

func TestSnapshotRestore(t *testing.T) {
	ix := newNameIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Delete(2))

	var buf bytes.Buffer
	require.NoError(t, ix.Snapshot(&buf))

	restored, err := Restore(&buf)
	require.NoError(t, err)

	// The tombstoned record never made it into the snapshot.
	got, err := restored.Query(ctx, []Predicate{like(0, "%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3, 4}, got)

	got, err = restored.Query(ctx, []Predicate{like(0, "al%")})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, got)
}

func TestRestoreEmptySnapshot(t *testing.T) {
	ix, err := New(3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ix.Snapshot(&buf))

	restored, err := Restore(&buf)
	require.NoError(t, err)

	// The column count survives the round trip.
	require.NoError(t, restored.Insert(1, []string{"a", "b", "c"}))
	assert.ErrorIs(t, restored.Insert(2, []string{"a"}), ErrColumnOutOfRange)
}

func TestRestoreGarbage(t *testing.T) {
	_, err := Restore(bytes.NewReader([]byte("junk")))
	require.Error(t, err)
}

func TestMetricsCollected(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	ix, err := New(1, func(o *Options) {
		o.Metrics = metrics
		o.TombstoneCleanupThreshold = 1
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Insert(1, []string{"alice"}))
	require.NoError(t, ix.Insert(2, []string{"bob"}))
	_ = ix.Insert(1, []string{"dup"})

	_, err = ix.Query(ctx, []Predicate{like(0, "a%")})
	require.NoError(t, err)

	require.NoError(t, ix.Delete(2)) // threshold 1 triggers cleanup

	assert.Equal(t, int64(3), metrics.InsertCount.Load())
	assert.Equal(t, int64(1), metrics.InsertErrors.Load())
	assert.Equal(t, int64(1), metrics.QueryCount.Load())
	assert.Equal(t, int64(1), metrics.QueryResults.Load())
	assert.Equal(t, int64(1), metrics.DeleteCount.Load())
	assert.Equal(t, int64(1), metrics.CleanupCount.Load())
	assert.Equal(t, int64(1), metrics.CleanupReclaimed.Load())
}

func TestQueryContextCancelled(t *testing.T) {
	ix := newNameIndex(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Query(ctx, []Predicate{like(0, "%")})
	assert.ErrorIs(t, err, context.Canceled)
}
