package pager

import "errors"

// ErrTotalPagesChanged is returned by GotoPage when the re-validated
// total page count differs from the one the cursor was built on. The
// result set shifted underneath the crawl, so arbitrary jumps are no
// longer trustworthy.
var ErrTotalPagesChanged = errors.New("pager: total page count changed during traversal")
