// internal/searchpage/driver.go
package searchpage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
)

const (
	searchInputCSS = "input"
	enterKey       = "Enter"
)

// Search submits query on the active surface and waits for its outcome. An
// empty result set is not an error; an unusable surface or a cancelled
// context is.
func (p *SearchPage) Search(ctx context.Context, query string) error {
	p.session.record(query)

	h := p.ResolveSearchHandle(ctx)
	log := p.logger.With(zap.String("query", query), zap.Stringer("surface", h.Kind()), zap.String("target", h.Target()))

	var err error
	switch h := h.(type) {
	case EncapsulatedHandle:
		err = p.submitInRoot(ctx, h.Root, query)
	case PlainHandle:
		err = p.submitInDocument(ctx, h.Selector, query)
	default:
		err = fmt.Errorf("unsupported search handle %T", h)
	}
	if err != nil {
		return err
	}

	signal := p.AwaitOutcome(ctx, h)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("search for %q canceled: %w", query, err)
	}
	if signal.Kind == OutcomeTimeout {
		log.Warn("Search outcome inconclusive.", zap.Stringer("signal", signal))
	} else {
		log.Info("Search completed.", zap.Stringer("signal", signal))
	}
	return nil
}

// submitInRoot sets the component's input through an input event, since
// framework-bound inputs ignore bare value assignment, then presses its
// submit control when there is one.
func (p *SearchPage) submitInRoot(ctx context.Context, root browser.Root, query string) error {
	set, err := root.SetValue(ctx, searchInputCSS, query)
	if err != nil {
		return fmt.Errorf("failed to set search input in component: %w", err)
	}
	if !set {
		p.logger.Debug("Component has no input.", zap.String("root", root.Ref()))
	}

	submitted, err := root.Click(ctx, p.cfg.SubmitSelector)
	if err != nil {
		return fmt.Errorf("failed to submit search in component: %w", err)
	}
	if !submitted {
		p.logger.Debug("Component has no submit control.", zap.String("selector", p.cfg.SubmitSelector))
	}
	return nil
}

// submitInDocument fills the resolved input and presses Enter on it. If that
// fails it tries once more on the first visible input.
func (p *SearchPage) submitInDocument(ctx context.Context, selector, query string) error {
	target := browser.CSS(selector)
	err := p.fillAndSubmit(ctx, target, query, p.cfg.FillTimeout)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	p.logger.Debug("Search input rejected the query, trying the first visible input.",
		zap.String("selector", selector), zap.Error(err))

	fallback := browser.CSS(searchInputCSS).Visible()
	n, cerr := p.page.Count(ctx, fallback)
	if cerr != nil || n == 0 {
		return fmt.Errorf("failed to fill search input %s: %w", selector, err)
	}
	if ferr := p.fillAndSubmit(ctx, fallback, query, p.cfg.FallbackFillTimeout); ferr != nil {
		p.logger.Debug("Fallback input rejected the query.", zap.Error(ferr))
	}
	return nil
}

func (p *SearchPage) fillAndSubmit(ctx context.Context, q browser.Query, query string, timeout time.Duration) error {
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.page.Fill(fctx, q, query); err != nil {
		return err
	}
	return p.page.Press(fctx, q, enterKey)
}
