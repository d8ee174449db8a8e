package model

// SessionState represents the CAPTCHA gate's view of a browsing session.
// The state is owned exclusively by the gate and mutated only through its
// transition function; it is discarded when the browsing session ends.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides human-readable
// output for logging.
type SessionState int

const (
	// StateUnauthenticated is the initial state. No CAPTCHA has been
	// submitted for this session, so queries will not return real results.
	StateUnauthenticated SessionState = iota

	// StateAwaitingCaptchaInput means a query is about to be submitted and
	// the gate is blocked on human entry of the numeric CAPTCHA code.
	StateAwaitingCaptchaInput

	// StateAuthorized means the code was accepted by the server and queries
	// issued on this session return real results. The gate short-circuits
	// in this state unless a caller forces re-entry.
	StateAuthorized

	// StateAuthorizationFailed means the server echoed an invalid/expired
	// notice for the last submitted code. The gate loops back to
	// StateAwaitingCaptchaInput from here.
	StateAuthorizationFailed
)

// String returns a human-readable representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingCaptchaInput:
		return "awaiting_captcha_input"
	case StateAuthorized:
		return "authorized"
	case StateAuthorizationFailed:
		return "authorization_failed"
	default:
		return "unknown"
	}
}

// validTransitions enumerates the legal state machine edges.
// All reads and writes of SessionState go through CaptchaGate, which
// consults this table rather than assigning states ad hoc.
var validTransitions = map[SessionState][]SessionState{
	StateUnauthenticated:      {StateAwaitingCaptchaInput},
	StateAwaitingCaptchaInput: {StateAwaitingCaptchaInput, StateAuthorized, StateAuthorizationFailed},
	StateAuthorizationFailed:  {StateAwaitingCaptchaInput},
	StateAuthorized:           {StateUnauthenticated},
}

// CanTransition reports whether moving from s to next is a legal edge of
// the session state machine.
func (s SessionState) CanTransition(next SessionState) bool {
	for _, t := range validTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
