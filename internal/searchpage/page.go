// Package searchpage drives a search-and-select flow against a page whose
// search widget may live inside a custom element's shadow root or directly in
// the document. Every operation re-resolves the surface, so a widget that is
// redrawn between calls is picked up again.
package searchpage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/config"
)

// SearchPage is the page object for one test case. It is not safe for
// concurrent use.
type SearchPage struct {
	id         uuid.UUID
	page       browser.Page
	cfg        config.SearchConfig
	logger     *zap.Logger
	overlayLog *zap.Logger
	session    searchSession
}

// New creates a page object over an already opened tab.
func New(page browser.Page, cfg config.SearchConfig, logger *zap.Logger) *SearchPage {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	log := logger.Named("search_page").With(zap.String("page_id", id.String()))
	return &SearchPage{
		id:         id,
		page:       page,
		cfg:        cfg,
		logger:     log,
		overlayLog: log.Named("overlay"),
	}
}

// ID returns the page object's correlation id.
func (p *SearchPage) ID() string {
	return p.id.String()
}

// Navigate loads url and runs the consent overlay dismisser once.
func (p *SearchPage) Navigate(ctx context.Context, url string) error {
	p.logger.Info("Navigating to search page.", zap.String("url", url))
	if err := p.page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to load search page: %w", err)
	}
	p.DismissConsentOverlay(ctx)
	return nil
}

// LastQuery returns the most recently submitted query, if any.
func (p *SearchPage) LastQuery() (string, bool) {
	return p.session.last()
}

// settle gives the page time to render whatever a result activation opened.
func (p *SearchPage) settle(ctx context.Context) error {
	if p.cfg.SettleDelay <= 0 {
		return nil
	}
	return p.page.Sleep(ctx, p.cfg.SettleDelay)
}
