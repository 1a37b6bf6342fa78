// internal/browser/shadow.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// shadowRoot is a remote object reference to an open shadow root. It stays
// valid until the document is replaced.
type shadowRoot struct {
	session *Session
	id      runtime.RemoteObjectID
}

var _ Root = (*shadowRoot)(nil)

func (s *Session) ShadowRoot(ctx context.Context, hostCSS string) (Root, error) {
	var obj *runtime.RemoteObject
	err := s.runBounded(ctx, chromedp.Evaluate(pageScript(shadowRootFn, hostCSS), &obj,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithSilent(true)
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to look up shadow root of %q: %w", hostCSS, err)
	}
	if obj == nil || obj.ObjectID == "" {
		return nil, nil
	}
	return &shadowRoot{session: s, id: obj.ObjectID}, nil
}

func (r *shadowRoot) Ref() string { return string(r.id) }

func (r *shadowRoot) call(ctx context.Context, fn string, out interface{}, args ...interface{}) error {
	var raw []byte
	err := r.session.runBounded(ctx, chromedp.CallFunctionOn(rootFunction(fn, args...), &raw,
		func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(r.id)
		}))
	if err != nil {
		return fmt.Errorf("shadow root call failed: %w", err)
	}
	return decodeValue(raw, out)
}

func (r *shadowRoot) Count(ctx context.Context, css string) (int, error) {
	var n int
	err := r.call(ctx, rootCountFn, &n, css)
	return n, err
}

func (r *shadowRoot) Texts(ctx context.Context, css string, visibleOnly bool) ([]string, error) {
	var texts []string
	err := r.call(ctx, rootTextsFn, &texts, css, visibleOnly)
	return texts, err
}

func (r *shadowRoot) SetValue(ctx context.Context, css, value string) (bool, error) {
	var ok bool
	err := r.call(ctx, rootSetValueFn, &ok, css, value)
	return ok, err
}

func (r *shadowRoot) Click(ctx context.Context, css string) (bool, error) {
	var ok bool
	err := r.call(ctx, rootClickFn, &ok, css)
	return ok, err
}

func (r *shadowRoot) ClickIn(ctx context.Context, itemCSS, contains, actionCSS string) (bool, error) {
	var ok bool
	err := r.call(ctx, rootClickInFn, &ok, itemCSS, contains, actionCSS)
	return ok, err
}
