package resolver

import "errors"

var (
	// ErrRowSkipped means no resolution strategy could produce a title and
	// detail URL for the row. The caller logs and continues with the next
	// row; a skipped row never aborts the page.
	ErrRowSkipped = errors.New("resolver: row skipped, no usable link signal")

	// ErrShortRow means the row has fewer cells than the five fixed
	// columns the listing table carries. Header and filler rows look like
	// this.
	ErrShortRow = errors.New("resolver: row has too few cells")

	// errNoLink is the internal "this strategy declines" signal that moves
	// the chain to the next strategy.
	errNoLink = errors.New("resolver: strategy found no link")
)
