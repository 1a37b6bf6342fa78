// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext derives a context from ctx1 that is also cancelled when ctx2 is.
// Values (and therefore the chromedp target) come from ctx1; ctx2 usually only
// carries an operation deadline.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// valueOnlyContext keeps the parent's values but drops its deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that inherits values from ctx but is not cancelled with it.
// Used for cleanup that has to run after the operation's context is gone.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
