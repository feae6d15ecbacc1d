package likedex

// Options contains configuration options for the index engine.
// The numeric defaults are tuning values, not correctness
// requirements; adjust them to your workload.
type Options struct {
	// MaxIndexedLength caps how many leading bytes of a value
	// participate in positional indexing. Longer values are indexed
	// as their prefix of this length; truncation is deterministic.
	MaxIndexedLength int

	// MaxPatternLength is the longest accepted pattern. Longer
	// patterns are rejected with ErrInvalidPattern before evaluation.
	MaxPatternLength int

	// TombstoneCleanupThreshold is the tombstone count at which the
	// engine rebuilds all bitmaps from live records and renumbers
	// slots densely.
	TombstoneCleanupThreshold int

	// ParallelCollectThreshold is the result cardinality above which
	// materialization splits into concurrently processed chunks.
	ParallelCollectThreshold int

	// CaseFolding maintains a byte-folded twin of every structure so
	// CaseFold (ILIKE) predicates can be answered. Disable to halve
	// index memory when case-insensitive matching is never needed.
	CaseFolding bool

	// Logger receives build and cleanup events. Defaults to a noop
	// logger; the library is silent unless asked.
	Logger *Logger

	// Metrics receives per-operation timings. Defaults to noop.
	Metrics MetricsCollector
}

// DefaultOptions contains the default configuration options for the
// index engine.
var DefaultOptions = Options{
	MaxIndexedLength:          256,
	MaxPatternLength:          1024,
	TombstoneCleanupThreshold: 1000,
	ParallelCollectThreshold:  10000,
	CaseFolding:               true,
}

// QueryOptions configures one query evaluation.
type QueryOptions struct {
	// Limit stops materialization once this many ids are collected.
	// Zero means unlimited. The limit is a pure early exit; it never
	// mutates stored bitmaps.
	Limit int

	// Sorted returns ids in ascending order. Aggregate-style callers
	// (COUNT, EXISTS) can disable the sort.
	Sorted bool
}

// DefaultQueryOptions contains the default per-query options.
var DefaultQueryOptions = QueryOptions{
	Sorted: true,
}

// WithLimit caps the number of returned ids.
func WithLimit(n int) func(o *QueryOptions) {
	return func(o *QueryOptions) {
		o.Limit = n
	}
}

// WithoutSort skips the final sort of returned ids.
func WithoutSort() func(o *QueryOptions) {
	return func(o *QueryOptions) {
		o.Sorted = false
	}
}
