package browser

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"zfcgcrawl/internal/session"
)

// Tests here cover the parts of the package that do not need a running
// Chrome instance.

func TestOptions(t *testing.T) {
	t.Parallel()

	b := &Browser{}
	for _, opt := range []Option{
		WithHeadless(true),
		WithUserAgent("test-agent"),
		WithWindowSize(800, 600),
		WithNavTimeout(5 * time.Second),
		WithLogger(slog.Default()),
	} {
		opt(b)
	}

	if !b.headless {
		t.Error("headless not applied")
	}
	if b.userAgent != "test-agent" {
		t.Errorf("userAgent = %q", b.userAgent)
	}
	if b.windowW != 800 || b.windowH != 600 {
		t.Errorf("window = %dx%d", b.windowW, b.windowH)
	}
	if b.navTimeout != 5*time.Second {
		t.Errorf("navTimeout = %v", b.navTimeout)
	}
}

func TestMapErrDeadTab(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Browser{tab: ctx}

	err := b.mapErr(context.Canceled)
	if !errors.Is(err, session.ErrSessionLost) {
		t.Errorf("mapErr = %v, want ErrSessionLost", err)
	}
}

func TestMapErrLiveTab(t *testing.T) {
	t.Parallel()

	b := &Browser{tab: context.Background()}

	plain := errors.New("element not visible")
	if err := b.mapErr(plain); !errors.Is(err, plain) {
		t.Errorf("mapErr rewrote a live-tab error: %v", err)
	}
	if err := b.mapErr(nil); err != nil {
		t.Errorf("mapErr(nil) = %v", err)
	}
}

func TestWaitUntilPredicate(t *testing.T) {
	t.Parallel()

	b := &Browser{tab: context.Background()}

	calls := 0
	err := b.WaitUntil(context.Background(), func(_ context.Context) (bool, error) {
		calls++
		return calls >= 2, nil
	}, time.Second)
	if err != nil {
		t.Fatalf("WaitUntil: %v", err)
	}
	if calls < 2 {
		t.Errorf("calls = %d", calls)
	}
}

func TestWaitUntilTimeout(t *testing.T) {
	t.Parallel()

	b := &Browser{tab: context.Background()}

	err := b.WaitUntil(context.Background(), func(_ context.Context) (bool, error) {
		return false, session.ErrNotFound
	}, 10*time.Millisecond)
	if !errors.Is(err, session.ErrWaitTimeout) {
		t.Errorf("WaitUntil = %v, want ErrWaitTimeout", err)
	}
}

func TestWaitUntilHonorsCancellation(t *testing.T) {
	t.Parallel()

	b := &Browser{tab: context.Background()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.WaitUntil(ctx, func(_ context.Context) (bool, error) {
		return false, nil
	}, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WaitUntil = %v, want context.Canceled", err)
	}
}
