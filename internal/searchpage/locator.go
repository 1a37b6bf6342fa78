// internal/searchpage/locator.go
package searchpage

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/waitutil"
)

// ResolveSearchHandle finds the active search surface. It never fails: when
// nothing is found it returns a plain handle on the component tag so the next
// concrete action reports the missing element.
func (p *SearchPage) ResolveSearchHandle(ctx context.Context) SearchHandle {
	tag := p.cfg.ComponentTag

	if h, ok := p.resolveComponent(ctx, tag); ok {
		return h
	}

	for _, sel := range p.cfg.FallbackSelectors {
		if p.probeVisible(ctx, sel) {
			p.logger.Debug("Resolved plain search input.", zap.String("selector", sel))
			return PlainHandle{Selector: sel}
		}
	}

	p.logger.Warn("No search surface found, using the component tag.", zap.String("selector", tag))
	return PlainHandle{Selector: tag}
}

func (p *SearchPage) resolveComponent(ctx context.Context, tag string) (SearchHandle, bool) {
	n, err := p.page.Count(ctx, browser.CSS(tag))
	if err != nil {
		p.logger.Debug("Component lookup failed.", zap.String("component", tag), zap.Error(err))
		return nil, false
	}
	if n == 0 {
		return nil, false
	}

	root, err := p.page.ShadowRoot(ctx, tag)
	if err != nil {
		p.logger.Debug("Could not obtain component shadow root.", zap.String("component", tag), zap.Error(err))
		return nil, false
	}
	if root == nil {
		return nil, false
	}
	return EncapsulatedHandle{Host: tag, Root: root}, true
}

// probeVisible reports whether sel matches something whose first match
// becomes visible within the probe window.
func (p *SearchPage) probeVisible(ctx context.Context, sel string) bool {
	q := browser.CSS(sel)
	n, err := p.page.Count(ctx, q)
	if err != nil || n == 0 {
		return false
	}
	visible, err := waitutil.Poll(ctx, p.cfg.ProbeInterval, p.cfg.ProbeTimeout, func(ctx context.Context) (bool, error) {
		return p.page.Visible(ctx, q, 0)
	})
	return err == nil && visible
}
