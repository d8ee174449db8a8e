package sink

import "errors"

var (
	// ErrNoSinks is returned when a MultiSink is created without any
	// member sinks.
	ErrNoSinks = errors.New("sink: no sinks configured")
)
