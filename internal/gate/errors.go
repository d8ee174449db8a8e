package gate

import "errors"

// Gate errors.
//
// Design decision: sentinel errors rather than ad hoc fmt.Errorf values
// so the orchestrator can tell "this query attempt failed" apart from
// "the session is unusable" with errors.Is().
var (
	// ErrNoCaptchaInput is returned when no CAPTCHA input field can be
	// located on the page. The current query attempt fails; the process
	// does not.
	ErrNoCaptchaInput = errors.New("gate: captcha input field not found")

	// ErrNoSubmitControl is returned when every submit-control lookup
	// strategy has been exhausted. The current query attempt fails; the
	// process does not.
	ErrNoSubmitControl = errors.New("gate: query control not found")

	// ErrRetriesExhausted is returned when the configured retry bound is
	// reached without the server accepting a code. Never returned when
	// the bound is zero (retry forever).
	ErrRetriesExhausted = errors.New("gate: captcha retries exhausted")

	// ErrInvalidTransition reports an attempt to move the session state
	// machine along an edge the model does not permit. Seeing it means a
	// gate bug, not a site condition.
	ErrInvalidTransition = errors.New("gate: invalid session state transition")
)
