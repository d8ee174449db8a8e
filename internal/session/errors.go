package session

import "errors"

// Sentinel errors shared by all Session implementations.
//
// Design decision: We use package-level sentinel errors rather than
// driver-specific error types so the engine can dispatch with errors.Is()
// without knowing which implementation is underneath.
var (
	// ErrNotFound is returned by FindOne when no element matches the
	// selector. It is a recoverable condition: fallback chains treat it
	// as "try the next strategy", never as a failed crawl.
	ErrNotFound = errors.New("session: no element matches selector")

	// ErrWaitTimeout is returned when a bounded wait expires before its
	// predicate holds. Callers treat it as a recoverable failure of the
	// current transition, not of the session.
	ErrWaitTimeout = errors.New("session: wait timed out")

	// ErrSessionLost means the browsing context is permanently unusable
	// (the browser died, the tab was closed underneath us). This is the
	// only session error that terminates a crawl.
	ErrSessionLost = errors.New("session: browsing context lost")
)
