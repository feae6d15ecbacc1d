// Package likedex provides an in-memory, position-indexed,
// bitmap-compressed pattern-matching engine for SQL LIKE/ILIKE
// predicates over one or more text columns.
//
// For every indexed value the engine records, per byte, which records
// carry that byte at each forward offset (from the start) and reverse
// offset (from the end), using compressed roaring bitmaps. A pattern
// such as "al%" then resolves to a handful of bitmap intersections
// instead of a scan. Case-insensitive matching runs against a
// byte-folded twin of all structures.
//
// # Quick Start
//
//	ix, err := likedex.New(1)
//	if err != nil {
//	    panic(err)
//	}
//
//	_ = ix.Insert(1, []string{"alice"})
//	_ = ix.Insert(2, []string{"bob"})
//	_ = ix.Insert(3, []string{"alexandra"})
//
//	ids, _ := ix.Query(ctx, []likedex.Predicate{
//	    {Column: 0, Pattern: "al%"},
//	})
//	// ids == [1, 3]
//
// # Multi-Predicate Queries
//
// Several predicates in one call are intersected. The planner orders
// them by estimated selectivity so the cheapest, most selective
// pattern shrinks the candidate set first, and stops as soon as the
// intersection is empty:
//
//	ids, _ := ix.Query(ctx, []likedex.Predicate{
//	    {Column: 0, Pattern: "%smith%"},
//	    {Column: 1, Pattern: "NYC-%"},
//	    {Column: 0, Pattern: "%consulting", Negate: true},
//	})
//
// QueryAny unions independent AND-chains; Count and Exists skip result
// materialization entirely.
//
// # Deletion Model
//
// Deletes are lazy: the record's slot is tombstoned and pushed onto a
// free-list while its bitmap entries stay in place. Queries subtract
// the tombstone set once per call. When tombstones cross a threshold
// the engine rebuilds every bitmap from live records and renumbers
// slots densely. The index is never persisted; Snapshot/Restore
// serialize only the source rows and rebuild all bitmaps on load.
//
// # Concurrency
//
// Any number of queries may run concurrently. Insert, Delete, Update
// and cleanup take exclusive access and appear atomic to readers.
package likedex
