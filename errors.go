package likedex

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Delete and Update when the external
	// id is not live in the index. The operation is a no-op; no state
	// is modified.
	ErrNotFound = errors.New("record not found")

	// ErrColumnOutOfRange is returned when a predicate or value list
	// references a column the index was not created with.
	ErrColumnOutOfRange = errors.New("column out of range")

	// ErrCaseFoldingDisabled is returned for a CaseFold predicate when
	// the index was built without the folded variant.
	ErrCaseFoldingDisabled = errors.New("case folding disabled for this index")

	// ErrDuplicateID is returned by Insert when the external id is
	// already live.
	ErrDuplicateID = errors.New("duplicate record id")
)

// ErrInvalidPattern indicates a pattern that was rejected before any
// evaluation: a malformed escape or a pattern longer than the
// configured maximum. A query carrying one never partially runs.
//
// The original underlying error (if any) can be accessed via
// errors.Unwrap.
type ErrInvalidPattern struct {
	Pattern string
	Reason  string
	cause   error
}

func (e *ErrInvalidPattern) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

func (e *ErrInvalidPattern) Unwrap() error { return e.cause }
