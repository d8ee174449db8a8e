package crawler

import "errors"

var (
	// ErrCaptchaUnverified means the portal still demands CAPTCHA
	// completion after the gate reported success. The query attempt
	// failed; the human should re-run with a fresh code.
	ErrCaptchaUnverified = errors.New("crawler: portal still demands captcha completion")

	// ErrNoResultTable means the search produced no result table within
	// the bounded wait. The criterion may match nothing, or the page did
	// not finish loading.
	ErrNoResultTable = errors.New("crawler: no result table after search")
)
