// Package waitutil holds the bounded wait primitives used while driving a page:
// interval polling, racing several waits, and context-aware sleeps.
package waitutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Condition reports whether a polled state has been reached. An error counts
// as "not yet".
type Condition func(ctx context.Context) (bool, error)

// Wait blocks until some state holds or ctx is done.
type Wait func(ctx context.Context) error

var errSettled = errors.New("waitutil: race settled")

// Poll evaluates cond at most once per interval until it reports true or the
// bound elapses. It returns (false, nil) when the bound elapses and the parent
// context's error when the parent is cancelled.
func Poll(ctx context.Context, interval, bound time.Duration, cond Condition) (bool, error) {
	pctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		// Wait fails fast once the next token would land past the deadline.
		if err := limiter.Wait(pctx); err != nil {
			break
		}
		ok, err := cond(pctx)
		if err == nil && ok {
			return true, nil
		}
		if pctx.Err() != nil {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// Race runs every wait concurrently under a shared bound and returns the index
// of the first one to succeed. Failed waits drop out of the race. Once a winner
// is known the remaining waits are cancelled. When no wait succeeds within the
// bound the winner is -1 and the error is nil unless the parent was cancelled.
func Race(ctx context.Context, bound time.Duration, waits ...Wait) (int, error) {
	if len(waits) == 0 {
		return -1, nil
	}

	rctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	g, gctx := errgroup.WithContext(rctx)

	var (
		mu     sync.Mutex
		winner = -1
	)
	for i, w := range waits {
		i, w := i, w
		g.Go(func() error {
			if err := w(gctx); err != nil {
				return nil
			}
			mu.Lock()
			if winner < 0 {
				winner = i
			}
			mu.Unlock()
			return errSettled
		})
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if winner < 0 {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
	}
	return winner, nil
}
