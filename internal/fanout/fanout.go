// Package fanout provides a bounded, order-preserving fan-out helper for
// calling an external data source over a list of keys.
package fanout

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Map invokes worker over every item with at most concurrency calls in
// flight and returns the results aligned positionally with items. Workers
// share a single atomic cursor, each claiming the next unclaimed index, so
// no index is duplicated or skipped. Concurrency is clamped to len(items).
//
// The first worker error fails the whole call: partial results are
// discarded and never observed by the caller. In-flight siblings are not
// actively cancelled beyond the errgroup context being signalled; there is
// no retry.
func Map[T, R any](ctx context.Context, items []T, concurrency int, worker func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]R, len(items))
	var cursor atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= len(items) {
					return nil
				}
				res, err := worker(ctx, items[idx])
				if err != nil {
					return err
				}
				results[idx] = res
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
