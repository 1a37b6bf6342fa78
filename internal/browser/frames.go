// internal/browser/frames.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const isolatedWorldName = "searchprobe"

// frameScope queries an embedded frame through an isolated world, which keeps
// the frame's own scripts out of the way. Clicks are synthesized in-page.
type frameScope struct {
	session *Session
	frameID cdp.FrameID
	url     string
	execID  runtime.ExecutionContextID
}

var _ Scope = (*frameScope)(nil)

// Frames returns a Scope for every child frame in the tab's frame tree,
// cross-origin ones included since the Manager runs without site isolation.
// Frames whose world cannot be created are skipped.
func (s *Session) Frames(ctx context.Context) ([]Scope, error) {
	var tree *page.FrameTree
	err := s.runBounded(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		tree, err = page.GetFrameTree().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read frame tree: %w", err)
	}
	if tree == nil {
		return nil, nil
	}

	var scopes []Scope
	var walk func(children []*page.FrameTree)
	walk = func(children []*page.FrameTree) {
		for _, child := range children {
			if child == nil || child.Frame == nil {
				continue
			}
			frame, err := s.openFrame(ctx, child.Frame)
			if err != nil {
				s.logger.Debug("Skipping frame.", zap.String("url", child.Frame.URL), zap.Error(err))
			} else {
				scopes = append(scopes, frame)
			}
			walk(child.ChildFrames)
		}
	}
	walk(tree.ChildFrames)
	return scopes, nil
}

func (s *Session) openFrame(ctx context.Context, f *cdp.Frame) (*frameScope, error) {
	var execID runtime.ExecutionContextID
	err := s.runBounded(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		execID, err = page.CreateIsolatedWorld(f.ID).WithWorldName(isolatedWorldName).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return &frameScope{session: s, frameID: f.ID, url: f.URL, execID: execID}, nil
}

func (f *frameScope) evaluate(ctx context.Context, script string, out interface{}) error {
	var raw []byte
	err := f.session.runBounded(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exp, err := runtime.Evaluate(script).
			WithContextID(f.execID).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			WithSilent(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exp
		}
		if res != nil {
			raw = []byte(res.Value)
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("frame %s: %w", f.url, err)
	}
	return decodeValue(raw, out)
}

func (f *frameScope) Count(ctx context.Context, q Query) (int, error) {
	var n int
	err := f.evaluate(ctx, pageScript(countFn, q), &n)
	return n, err
}

func (f *frameScope) Visible(ctx context.Context, q Query, nth int) (bool, error) {
	var ok bool
	err := f.evaluate(ctx, pageScript(visibleFn, q, nth), &ok)
	return ok, err
}

func (f *frameScope) Text(ctx context.Context, q Query, nth int) (string, error) {
	var text *string
	if err := f.evaluate(ctx, pageScript(textFn, q, nth), &text); err != nil {
		return "", err
	}
	if text == nil {
		return "", fmt.Errorf("%w: %s [%d]", ErrNoElement, q, nth)
	}
	return *text, nil
}

func (f *frameScope) Click(ctx context.Context, q Query, nth int) error {
	var clicked bool
	if err := f.evaluate(ctx, pageScript(jsClickFn, q, nth), &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s [%d]", ErrNoElement, q, nth)
	}
	return nil
}
