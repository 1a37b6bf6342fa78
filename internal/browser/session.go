// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/config"
)

const defaultActionTimeout = 5 * time.Second

// Session is one browser tab driven over CDP. It implements Page.
type Session struct {
	id     string
	ctx    context.Context // chromedp tab context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	// runActionsFunc points at RunActions; tests swap it out.
	runActionsFunc func(ctx context.Context, actions ...chromedp.Action) error
	onClose        func()
}

var _ Page = (*Session)(nil)

func newSession(tabCtx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		id:     id,
		ctx:    tabCtx,
		cancel: cancel,
		logger: logger.With(zap.String("session_id", id)),
		cfg:    cfg,
	}
	s.runActionsFunc = s.RunActions
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// RunActions runs chromedp actions on the tab, bounded by both the session
// and the operation context. The operation's error wins when it is done.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return fmt.Errorf("session closed: %w", s.ctx.Err())
		}
	}
	return err
}

// runBounded runs actions under the caller's deadline, or under the
// configured action timeout when the caller has none.
func (s *Session) runBounded(ctx context.Context, actions ...chromedp.Action) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.runActionsFunc(ctx, actions...)
}

// bound caps ctx at the action timeout unless it already carries a deadline.
func (s *Session) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	timeout := s.cfg.ActionTimeout
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Close cancels the tab context, closing the tab.
func (s *Session) Close() {
	s.cancel()
	if s.onClose != nil {
		s.onClose()
	}
}

// Navigate loads url and waits for the load event, bounded by the configured
// navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.runActionsFunc(navCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", ctx.Err())
		}
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, timeout, navCtx.Err())
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Evaluate runs script in the main world, awaiting promises, and decodes the
// result into out.
func (s *Session) Evaluate(ctx context.Context, script string, out interface{}) error {
	var raw []byte
	err := s.runBounded(ctx, chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
	if err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return decodeValue(raw, out)
}

func (s *Session) Count(ctx context.Context, q Query) (int, error) {
	var n int
	if err := s.Evaluate(ctx, pageScript(countFn, q), &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Session) Visible(ctx context.Context, q Query, nth int) (bool, error) {
	var ok bool
	if err := s.Evaluate(ctx, pageScript(visibleFn, q, nth), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Session) Text(ctx context.Context, q Query, nth int) (string, error) {
	var text *string
	if err := s.Evaluate(ctx, pageScript(textFn, q, nth), &text); err != nil {
		return "", err
	}
	if text == nil {
		return "", fmt.Errorf("%w: %s [%d]", ErrNoElement, q, nth)
	}
	return *text, nil
}

// Click performs a native mouse click on the nth match, waiting for it to be visible.
func (s *Session) Click(ctx context.Context, q Query, nth int) error {
	return s.withTagged(ctx, q, nth, func(sel string) error {
		return s.runBounded(ctx, chromedp.Click(sel, chromedp.ByQuery))
	})
}

func (s *Session) Fill(ctx context.Context, q Query, value string) error {
	return s.withTagged(ctx, q, 0, func(sel string) error {
		return s.runBounded(ctx,
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, value, chromedp.ByQuery),
		)
	})
}

func (s *Session) Press(ctx context.Context, q Query, key string) error {
	return s.withTagged(ctx, q, 0, func(sel string) error {
		return s.runBounded(ctx, chromedp.SendKeys(sel, keyFor(key), chromedp.ByQuery))
	})
}

// WaitFor polls in-page at the configured interval until q reaches state.
// Without a caller deadline the wait is capped at the action timeout.
func (s *Session) WaitFor(ctx context.Context, q Query, state State) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	// The in-page poll stops with the caller's deadline so nothing keeps
	// running in the tab after we give up.
	var timeout time.Duration
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	err := s.runActionsFunc(ctx, chromedp.Poll(pageScript(waitFn, q, state.String()), nil,
		chromedp.WithPollingInterval(interval),
		chromedp.WithPollingTimeout(timeout),
	))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return fmt.Errorf("waiting for %s to be %s: %w", q, state, context.DeadlineExceeded)
		}
		return fmt.Errorf("waiting for %s to be %s: %w", q, state, err)
	}
	return nil
}

func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return s.runActionsFunc(ctx, chromedp.Sleep(d))
}

// withTagged marks the nth match of q with a unique attribute, runs act with a
// selector for it, and removes the mark afterwards.
func (s *Session) withTagged(ctx context.Context, q Query, nth int, act func(sel string) error) error {
	token := uuid.NewString()
	var found bool
	if err := s.Evaluate(ctx, pageScript(tagFn, q, nth, refAttr, token), &found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s [%d]", ErrNoElement, q, nth)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(Detach(ctx), time.Second)
		defer cancel()
		if err := s.Evaluate(cleanupCtx, pageScript(untagFn, refAttr, token), nil); err != nil {
			s.logger.Debug("Failed to remove element tag.", zap.Error(err))
		}
	}()

	return act(fmt.Sprintf(`[%s="%s"]`, refAttr, token))
}

// keyFor maps key names to the sequences chromedp's SendKeys understands.
func keyFor(key string) string {
	switch key {
	case "Enter":
		return kb.Enter
	case "Tab":
		return kb.Tab
	case "Escape":
		return kb.Escape
	default:
		return key
	}
}
