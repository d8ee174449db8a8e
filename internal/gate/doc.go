// Package gate implements the CAPTCHA checkpoint a browsing session must
// pass before the portal returns real results.
//
// The gate owns the session's authorization state machine
// (model.SessionState) and is the only component allowed to mutate it.
// It never solves CAPTCHAs: a human reads the image in the browser and
// types the four-digit code at the prompt, and the gate only fills the
// form, activates the query control, and watches for the server's
// invalid/expired notice.
//
// Once a session is authorized the gate memoizes that fact and
// short-circuits until a caller explicitly forces re-entry or resets it.
package gate
