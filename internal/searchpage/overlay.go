// internal/searchpage/overlay.go
package searchpage

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/waitutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// acceptScript clicks the first visible, enabled button whose text contains
// the needle, searching the whole document first and then each container.
const acceptScript = `(() => {
  const needle = %s;
  const visible = (el) => {
    const r = el.getBoundingClientRect();
    if (r.width <= 0 || r.height <= 0) return false;
    const s = window.getComputedStyle(el);
    return s.display !== 'none' && s.visibility !== 'hidden';
  };
  const tryClick = (root) => {
    for (const b of root.querySelectorAll('button')) {
      const text = (b.innerText || b.textContent || '').toLowerCase();
      if (text.includes(needle) && !b.disabled && visible(b)) {
        b.click();
        return true;
      }
    }
    return false;
  };
  if (tryClick(document)) return true;
  for (const c of document.querySelectorAll(%s)) {
    if (tryClick(c)) return true;
  }
  return false;
})()`

type overlayStrategy struct {
	name string
	try  func(ctx context.Context) bool
}

// DismissConsentOverlay tries to close a consent dialog. It is best effort:
// strategies run cheapest first, the first success stops the chain and
// failures are only logged.
func (p *SearchPage) DismissConsentOverlay(ctx context.Context) {
	strategies := []overlayStrategy{
		{"dialog", p.acceptInDialog},
		{"document", func(ctx context.Context) bool { return p.acceptVisibleIn(ctx, p.page) }},
		{"frames", p.acceptInFrames},
		{"script", p.acceptByScript},
		{"late", p.acceptWhenRendered},
	}
	for _, s := range strategies {
		if ctx.Err() != nil {
			return
		}
		if s.try(ctx) {
			p.overlayLog.Debug("Consent overlay dismissed.", zap.String("strategy", s.name))
			return
		}
	}
	p.overlayLog.Debug("No consent overlay dismissed.")
}

func (p *SearchPage) acceptQuery() browser.Query {
	return browser.CSS("button").WithTextFold(p.cfg.Overlay.AcceptText)
}

func (p *SearchPage) clickBounded(ctx context.Context, scope browser.Scope, q browser.Query, nth int) error {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.Overlay.ClickTimeout)
	defer cancel()
	return scope.Click(cctx, q, nth)
}

func (p *SearchPage) acceptInDialog(ctx context.Context) bool {
	dialog := browser.CSS(p.cfg.Overlay.DialogSelector)

	wctx, cancel := context.WithTimeout(ctx, p.cfg.Overlay.DialogWait)
	err := p.page.WaitFor(wctx, dialog, browser.StateVisible)
	cancel()
	if err != nil {
		p.overlayLog.Debug("No consent dialog appeared.", zap.Error(err))
		return false
	}

	accept := p.acceptQuery().Inside(dialog, 0)
	n, err := p.page.Count(ctx, accept)
	if err != nil || n == 0 {
		return false
	}
	if err := p.clickBounded(ctx, p.page, accept, 0); err != nil {
		p.overlayLog.Debug("Dialog accept click failed.", zap.Error(err))
	}
	return true
}

// acceptVisibleIn clicks the first visible accept button in scope. Hidden
// duplicates are skipped.
func (p *SearchPage) acceptVisibleIn(ctx context.Context, scope browser.Scope) bool {
	accept := p.acceptQuery()
	n, err := scope.Count(ctx, accept)
	if err != nil {
		p.overlayLog.Debug("Accept lookup failed.", zap.Error(err))
		return false
	}
	for i := 0; i < n; i++ {
		visible, err := scope.Visible(ctx, accept, i)
		if err != nil || !visible {
			continue
		}
		if err := p.clickBounded(ctx, scope, accept, i); err != nil {
			p.overlayLog.Debug("Accept click failed.", zap.Int("index", i), zap.Error(err))
			continue
		}
		return true
	}
	return false
}

func (p *SearchPage) acceptInFrames(ctx context.Context) bool {
	frames, err := p.page.Frames(ctx)
	if err != nil {
		p.overlayLog.Debug("Frame enumeration failed.", zap.Error(err))
		return false
	}
	for _, f := range frames {
		if p.acceptVisibleIn(ctx, f) {
			return true
		}
	}
	return false
}

func (p *SearchPage) acceptByScript(ctx context.Context) bool {
	needle, err := json.MarshalToString(strings.ToLower(p.cfg.Overlay.AcceptText))
	if err != nil {
		return false
	}
	containers, err := json.MarshalToString(p.cfg.Overlay.DialogSelector)
	if err != nil {
		return false
	}

	var clicked bool
	if err := p.page.Evaluate(ctx, fmt.Sprintf(acceptScript, needle, containers), &clicked); err != nil {
		p.overlayLog.Debug("Accept script failed.", zap.Error(err))
		return false
	}
	return clicked
}

// acceptWhenRendered covers overlays that render after the page settles.
func (p *SearchPage) acceptWhenRendered(ctx context.Context) bool {
	accept := p.acceptQuery()
	found, err := waitutil.Poll(ctx, p.cfg.Overlay.PollInterval, p.cfg.Overlay.PollTimeout, func(ctx context.Context) (bool, error) {
		n, err := p.page.Count(ctx, accept)
		if err != nil || n == 0 {
			return false, err
		}
		return p.page.Visible(ctx, accept, 0)
	})
	if err != nil || !found {
		return false
	}
	if err := p.clickBounded(ctx, p.page, accept, 0); err != nil {
		p.overlayLog.Debug("Late accept click failed.", zap.Error(err))
	}
	return true
}
