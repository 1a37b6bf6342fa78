// internal/searchpage/selector.go
package searchpage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
)

// ErrResultNotFound is returned by SelectResult when no result contains the
// requested text.
var ErrResultNotFound = errors.New("searchpage: no result matches")

// SelectResult activates the action control of the first result whose text
// contains matchText, then waits for the page to settle. An empty matchText
// selects the first result.
func (p *SearchPage) SelectResult(ctx context.Context, matchText string) error {
	if matchText == "" {
		return p.SelectFirstResult(ctx)
	}

	var err error
	if h, ok := p.ResolveSearchHandle(ctx).(EncapsulatedHandle); ok {
		err = p.selectInRoot(ctx, h.Root, matchText)
	} else {
		err = p.selectInDocument(ctx, matchText)
	}
	if err != nil {
		return err
	}
	p.logger.Info("Result activated.", zap.String("match", matchText))
	return p.settle(ctx)
}

func (p *SearchPage) selectInRoot(ctx context.Context, root browser.Root, matchText string) error {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.ClickTimeout)
	defer cancel()

	clicked, err := root.ClickIn(cctx, p.cfg.ResultItemSelector, matchText, p.cfg.ItemActionSelector)
	if err != nil {
		return fmt.Errorf("failed to activate result %q: %w", matchText, err)
	}
	if !clicked {
		return fmt.Errorf("%w: %q", ErrResultNotFound, matchText)
	}
	return nil
}

func (p *SearchPage) selectInDocument(ctx context.Context, matchText string) error {
	row := browser.CSS(p.cfg.RowSelector).WithText(matchText)
	action := browser.CSS(p.cfg.ItemActionSelector).WithTextFold(p.cfg.ActionText).Inside(row, -1)

	n, err := p.page.Count(ctx, action)
	if err != nil {
		return fmt.Errorf("failed to look up result %q: %w", matchText, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrResultNotFound, matchText)
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.ClickTimeout)
	defer cancel()
	if err := p.page.Click(cctx, action, 0); err != nil {
		return fmt.Errorf("failed to activate result %q: %w", matchText, err)
	}
	return nil
}

// SelectFirstResult activates the first result's action control. On a plain
// render a missing or unclickable control is only logged.
func (p *SearchPage) SelectFirstResult(ctx context.Context) error {
	if h, ok := p.ResolveSearchHandle(ctx).(EncapsulatedHandle); ok {
		cctx, cancel := context.WithTimeout(ctx, p.cfg.ClickTimeout)
		clicked, err := h.Root.Click(cctx, p.cfg.ResultItemSelector+" "+p.cfg.ItemActionSelector)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to activate first result: %w", err)
		}
		if !clicked {
			p.logger.Debug("Component has no result to activate.")
		}
	} else {
		p.clickFirstInDocument(ctx)
	}
	return p.settle(ctx)
}

func (p *SearchPage) clickFirstInDocument(ctx context.Context) {
	candidates := []browser.Query{
		browser.CSS(p.cfg.ItemActionSelector).WithTextFold(p.cfg.ActionText),
		browser.CSS(p.cfg.ResultItemSelector + " " + p.cfg.ItemActionSelector),
	}
	for _, q := range candidates {
		n, err := p.page.Count(ctx, q)
		if err != nil {
			p.logger.Debug("Result control lookup failed.", zap.Stringer("query", q), zap.Error(err))
			continue
		}
		if n == 0 {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, p.cfg.ClickTimeout)
		if err := p.page.Click(cctx, q, 0); err != nil {
			p.logger.Debug("First result click failed.", zap.Stringer("query", q), zap.Error(err))
		}
		cancel()
		return
	}
	p.logger.Debug("No result control found.")
}
