package model

import "testing"

// TestSessionStateString tests human-readable state names.
func TestSessionStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state SessionState
		want  string
	}{
		{name: "unauthenticated", state: StateUnauthenticated, want: "unauthenticated"},
		{name: "awaiting input", state: StateAwaitingCaptchaInput, want: "awaiting_captcha_input"},
		{name: "authorized", state: StateAuthorized, want: "authorized"},
		{name: "authorization failed", state: StateAuthorizationFailed, want: "authorization_failed"},
		{name: "unknown value", state: SessionState(99), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestSessionStateCanTransition tests the legal edges of the state machine.
func TestSessionStateCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from SessionState
		to   SessionState
		want bool
	}{
		{name: "unauthenticated to awaiting", from: StateUnauthenticated, to: StateAwaitingCaptchaInput, want: true},
		{name: "awaiting to awaiting on malformed input", from: StateAwaitingCaptchaInput, to: StateAwaitingCaptchaInput, want: true},
		{name: "awaiting to authorized", from: StateAwaitingCaptchaInput, to: StateAuthorized, want: true},
		{name: "awaiting to failed", from: StateAwaitingCaptchaInput, to: StateAuthorizationFailed, want: true},
		{name: "failed loops back to awaiting", from: StateAuthorizationFailed, to: StateAwaitingCaptchaInput, want: true},
		{name: "authorized resets to unauthenticated", from: StateAuthorized, to: StateUnauthenticated, want: true},
		{name: "unauthenticated cannot jump to authorized", from: StateUnauthenticated, to: StateAuthorized, want: false},
		{name: "authorized cannot re-enter awaiting directly", from: StateAuthorized, to: StateAwaitingCaptchaInput, want: false},
		{name: "failed cannot jump to authorized", from: StateAuthorizationFailed, to: StateAuthorized, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%v -> %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestContractInfoIsZero tests the absent-field convention.
func TestContractInfoIsZero(t *testing.T) {
	t.Parallel()

	var empty ContractInfo
	if !empty.IsZero() {
		t.Error("zero ContractInfo should report IsZero")
	}

	partial := ContractInfo{ContractNumber: "HT-2024-001"}
	if partial.IsZero() {
		t.Error("ContractInfo with a matched field should not report IsZero")
	}
}
