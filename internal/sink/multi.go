package sink

import (
	"context"

	"golang.org/x/sync/errgroup"

	"zfcgcrawl/internal/crawler"
	"zfcgcrawl/internal/model"
)

// MultiSink fans every flush out to multiple sinks concurrently. Each
// member receives the same record slices and must not mutate them.
type MultiSink struct {
	sinks []crawler.Sink
}

// NewMulti creates a MultiSink over the given sinks.
func NewMulti(sinks ...crawler.Sink) (*MultiSink, error) {
	if len(sinks) == 0 {
		return nil, ErrNoSinks
	}
	return &MultiSink{sinks: sinks}, nil
}

// Flush flushes all member sinks in parallel and returns the first
// error. The shared context is cancelled once a member fails.
func (m *MultiSink) Flush(ctx context.Context, results []model.SearchResultRecord, details []model.DetailRecord) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range m.sinks {
		g.Go(func() error {
			return s.Flush(ctx, results, details)
		})
	}
	return g.Wait()
}
