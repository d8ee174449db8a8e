package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zfcgcrawl/internal/model"
	"zfcgcrawl/internal/session"
)

// Selectors and labels anchored to the portal's Element UI markup.
const (
	// captchaInputSelector matches the CAPTCHA input by placeholder, name,
	// or id, in that combined form so any one marker is enough.
	captchaInputSelector = "input[placeholder*='验证码'], input[name*='captcha'], input[id*='captcha']"

	// buttonLikeSelector matches every control the linear-scan strategy
	// considers button-like.
	buttonLikeSelector = "button, input[type='button'], input[type='submit']"

	// submitLabel is the visible label of the query control.
	submitLabel = "查询"

	// captchaPrompt is shown to the human at the terminal.
	captchaPrompt = "请输入4位验证码: "
)

// invalidNotices are the server-echoed texts that mean the submitted code
// was rejected or has expired.
var invalidNotices = []string{"验证码错误", "验证码失效"}

// CaptchaGate manages the authorized/unauthorized transition of one
// browsing session. One gate instance belongs to exactly one session and
// is driven by a single control thread.
type CaptchaGate struct {
	sess     session.Session
	prompter session.Prompter
	logger   *slog.Logger

	// maxRetries bounds re-entry after rejected or malformed codes.
	// 0 preserves the portal crawler's historical retry-forever behavior.
	maxRetries int

	// settleWait is how long to let the page react to the query click
	// before checking for an invalid/expired notice.
	settleWait time.Duration

	// findWait bounds the wait for the CAPTCHA input field to render.
	findWait time.Duration

	// state is the session's authorization state. Mutated only through
	// transition().
	state model.SessionState

	// authorized memoizes a successful pass so subsequent calls in the
	// same session short-circuit.
	authorized bool
}

// Option configures a CaptchaGate.
type Option func(*CaptchaGate)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *CaptchaGate) {
		g.logger = logger
	}
}

// WithMaxRetries bounds CAPTCHA re-entry. 0 means retry forever.
func WithMaxRetries(n int) Option {
	return func(g *CaptchaGate) {
		g.maxRetries = n
	}
}

// WithSettleWait sets how long the gate waits after clicking the query
// control before checking for a rejection notice.
func WithSettleWait(d time.Duration) Option {
	return func(g *CaptchaGate) {
		g.settleWait = d
	}
}

// WithFindWait bounds the wait for the CAPTCHA input field to appear.
func WithFindWait(d time.Duration) Option {
	return func(g *CaptchaGate) {
		g.findWait = d
	}
}

// New creates a gate for one browsing session. The prompter is the
// blocking human input channel; it is consulted only from EnsureAuthorized.
func New(sess session.Session, prompter session.Prompter, opts ...Option) *CaptchaGate {
	g := &CaptchaGate{
		sess:       sess,
		prompter:   prompter,
		settleWait: 2 * time.Second,
		findWait:   10 * time.Second,
		state:      model.StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// State returns the session's current authorization state.
func (g *CaptchaGate) State() model.SessionState {
	return g.state
}

// Reset moves an authorized session back to unauthenticated. The
// orchestrator calls it when it detects the session was reset underneath
// the gate (for example a fresh query in a new context).
func (g *CaptchaGate) Reset() error {
	if g.state != model.StateAuthorized {
		return nil
	}
	if err := g.transition(model.StateUnauthenticated); err != nil {
		return err
	}
	g.authorized = false
	return nil
}

// transition moves the state machine along one edge, rejecting edges the
// model does not permit.
func (g *CaptchaGate) transition(next model.SessionState) error {
	if !g.state.CanTransition(next) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, g.state, next)
	}
	g.logger.Debug("session state transition", "from", g.state.String(), "to", next.String())
	g.state = next
	return nil
}

// EnsureAuthorized blocks until the session is authorized to query, or
// until the retry bound (if any) is exhausted. When the session is
// already authorized and force is false, it returns immediately without
// touching the document session.
//
// The wait on human input is unbounded by design; cancellation is honored
// between attempts via ctx.
func (g *CaptchaGate) EnsureAuthorized(ctx context.Context, force bool) error {
	if g.authorized && !force {
		g.logger.Debug("captcha already filled this session, skipping gate")
		return nil
	}
	if g.state == model.StateAuthorized {
		if err := g.transition(model.StateUnauthenticated); err != nil {
			return err
		}
		g.authorized = false
	}
	if err := g.transition(model.StateAwaitingCaptchaInput); err != nil {
		return err
	}

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		code, err := g.prompter.ReadLine(captchaPrompt)
		if err != nil {
			return fmt.Errorf("read captcha code: %w", err)
		}
		code = strings.TrimSpace(code)

		if !validCode(code) {
			// Malformed input re-prompts without contacting the document
			// session.
			g.logger.Warn("captcha code must be exactly 4 digits", "length", len(code))
			if err := g.transition(model.StateAwaitingCaptchaInput); err != nil {
				return err
			}
			if exhausted, err := g.countAttempt(&attempts); exhausted {
				return err
			}
			continue
		}

		ok, err := g.submit(ctx, code)
		if err != nil {
			return err
		}
		if !ok {
			// Server rejected the code. Loop back for re-entry.
			if err := g.transition(model.StateAuthorizationFailed); err != nil {
				return err
			}
			if err := g.transition(model.StateAwaitingCaptchaInput); err != nil {
				return err
			}
			if exhausted, err := g.countAttempt(&attempts); exhausted {
				return err
			}
			continue
		}

		if err := g.transition(model.StateAuthorized); err != nil {
			return err
		}
		g.authorized = true
		g.logger.Info("captcha accepted, session authorized")
		return nil
	}
}

// countAttempt applies the configured retry bound.
func (g *CaptchaGate) countAttempt(attempts *int) (bool, error) {
	*attempts++
	if g.maxRetries > 0 && *attempts >= g.maxRetries {
		return true, fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, *attempts)
	}
	return false, nil
}

// submit fills the code into the form, activates the query control, and
// reports whether the server accepted it. A false return with nil error
// means the code was rejected and re-entry should follow.
func (g *CaptchaGate) submit(ctx context.Context, code string) (bool, error) {
	waitErr := g.sess.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		_, err := g.sess.FindOne(ctx, captchaInputSelector)
		if err != nil {
			return false, err
		}
		return true, nil
	}, g.findWait)
	if waitErr != nil {
		if errors.Is(waitErr, session.ErrSessionLost) {
			return false, waitErr
		}
		return false, fmt.Errorf("%w: %v", ErrNoCaptchaInput, waitErr)
	}

	input, err := g.sess.FindOne(ctx, captchaInputSelector)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNoCaptchaInput, err)
	}
	if err := input.SetValue(ctx, code); err != nil {
		return false, fmt.Errorf("fill captcha input: %w", err)
	}

	control, err := g.findSubmitControl(ctx)
	if err != nil {
		return false, err
	}
	if err := control.Click(ctx); err != nil {
		return false, fmt.Errorf("activate query control: %w", err)
	}

	// Let the page react before looking for a rejection notice.
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(g.settleWait):
	}

	text, err := g.sess.PageText(ctx)
	if err != nil {
		return false, fmt.Errorf("read page after submit: %w", err)
	}
	for _, notice := range invalidNotices {
		if strings.Contains(text, notice) {
			g.logger.Warn("server rejected captcha code", "notice", notice)
			return false, nil
		}
	}
	return true, nil
}

// findSubmitControl locates the query control through an ordered fallback
// chain: exact label match, normalized-substring label match, then a
// linear scan of all button-like controls. The first match wins;
// exhaustion is ErrNoSubmitControl.
func (g *CaptchaGate) findSubmitControl(ctx context.Context) (session.Element, error) {
	type strategy struct {
		name string
		find func(ctx context.Context) (session.Element, error)
	}
	strategies := []strategy{
		{name: "exact label", find: g.findByExactLabel},
		{name: "normalized label", find: g.findByNormalizedLabel},
		{name: "button scan", find: g.findByButtonScan},
	}
	for _, s := range strategies {
		el, err := s.find(ctx)
		if err == nil {
			g.logger.Debug("located query control", "strategy", s.name)
			return el, nil
		}
	}
	return nil, ErrNoSubmitControl
}

// findByExactLabel matches a button whose visible text equals the query
// label exactly.
func (g *CaptchaGate) findByExactLabel(ctx context.Context) (session.Element, error) {
	buttons, err := g.sess.FindAll(ctx, "button")
	if err != nil {
		return nil, err
	}
	for _, b := range buttons {
		text, err := b.Text(ctx)
		if err != nil {
			continue
		}
		if text == submitLabel {
			return b, nil
		}
	}
	return nil, session.ErrNotFound
}

// findByNormalizedLabel matches a button whose whitespace-normalized text
// contains the query label. Element UI renders the label inside a nested
// span with surrounding whitespace, which the exact matcher misses.
func (g *CaptchaGate) findByNormalizedLabel(ctx context.Context) (session.Element, error) {
	buttons, err := g.sess.FindAll(ctx, "button")
	if err != nil {
		return nil, err
	}
	for _, b := range buttons {
		text, err := b.Text(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(normalizeSpace(text), submitLabel) {
			return b, nil
		}
	}
	return nil, session.ErrNotFound
}

// findByButtonScan linearly scans every button-like control, checking
// visible text for buttons and the value attribute for inputs.
func (g *CaptchaGate) findByButtonScan(ctx context.Context) (session.Element, error) {
	controls, err := g.sess.FindAll(ctx, buttonLikeSelector)
	if err != nil {
		return nil, err
	}
	for _, c := range controls {
		text, err := c.Text(ctx)
		if err == nil && strings.Contains(text, submitLabel) {
			return c, nil
		}
		value, ok, err := c.Attr(ctx, "value")
		if err == nil && ok && strings.Contains(value, submitLabel) {
			return c, nil
		}
	}
	return nil, session.ErrNotFound
}

// validCode reports whether the input is exactly four decimal digits.
func validCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeSpace collapses runs of whitespace to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
