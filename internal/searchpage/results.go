// internal/searchpage/results.go
package searchpage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
)

// CountResults returns the number of results on the active surface. Table
// renders are assumed to carry one header row. Read failures count as zero.
func (p *SearchPage) CountResults(ctx context.Context) int {
	if h, ok := p.ResolveSearchHandle(ctx).(EncapsulatedHandle); ok {
		n, err := h.Root.Count(ctx, p.cfg.ResultItemSelector)
		if err != nil {
			p.logger.Debug("Result count failed.", zap.Error(err))
			return 0
		}
		return n
	}
	return max(0, p.countOrZero(ctx, browser.CSS(p.cfg.RowSelector))-1)
}

// IsEmpty reports whether the last search produced no results. An explicit
// empty marker wins; otherwise a recorded query must appear, ignoring case,
// in some visible result. Without a query the result count decides. State
// that cannot be read is reported as not empty.
func (p *SearchPage) IsEmpty(ctx context.Context) bool {
	query, recorded := p.session.last()
	if h, ok := p.ResolveSearchHandle(ctx).(EncapsulatedHandle); ok {
		return p.isEmptyInRoot(ctx, h.Root, query, recorded)
	}
	return p.isEmptyInDocument(ctx, query, recorded)
}

func (p *SearchPage) isEmptyInRoot(ctx context.Context, root browser.Root, query string, recorded bool) bool {
	markers, err := root.Count(ctx, p.cfg.EmptyMarkerSelector)
	if err != nil {
		p.logger.Debug("Empty marker lookup failed.", zap.Error(err))
		return false
	}
	if markers > 0 {
		return true
	}

	if recorded {
		texts, err := root.Texts(ctx, p.cfg.ResultItemSelector, true)
		if err != nil {
			p.logger.Debug("Result text lookup failed.", zap.Error(err))
			return false
		}
		return !anyContainsFold(texts, query)
	}

	items, err := root.Count(ctx, p.cfg.ResultItemSelector)
	if err != nil {
		p.logger.Debug("Result count failed.", zap.Error(err))
		return false
	}
	return items == 0
}

func (p *SearchPage) isEmptyInDocument(ctx context.Context, query string, recorded bool) bool {
	if visible, err := p.page.Visible(ctx, browser.CSS(p.cfg.EmptyMarkerSelector), 0); err == nil && visible {
		return true
	}
	notice, err := p.page.Count(ctx, browser.Text(p.cfg.NoResultsText))
	if err != nil {
		p.logger.Debug("No-results text lookup failed.", zap.Error(err))
		return false
	}
	if notice > 0 {
		return true
	}

	if recorded {
		matches, err := p.page.Count(ctx, browser.CSS(p.cfg.RowSelector).Visible().WithTextFold(query))
		if err != nil {
			p.logger.Debug("Row match lookup failed.", zap.Error(err))
			return false
		}
		return matches == 0
	}

	// A header-only table is empty.
	return p.countOrZero(ctx, browser.CSS(p.cfg.RowSelector)) <= 1
}

// anyContainsFold is a literal, case-insensitive substring check.
func anyContainsFold(texts []string, needle string) bool {
	needle = strings.ToLower(needle)
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
