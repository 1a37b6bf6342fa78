// Package detailpage probes the result detail view opened from a search.
package detailpage

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/config"
)

// DetailsPage reads the detail view of a selected result.
type DetailsPage struct {
	page   browser.Page
	cfg    config.DetailConfig
	logger *zap.Logger
}

func New(page browser.Page, cfg config.DetailConfig, logger *zap.Logger) *DetailsPage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailsPage{page: page, cfg: cfg, logger: logger.Named("details_page")}
}

func (d *DetailsPage) restricted() browser.Query {
	return browser.Text(d.cfg.RestrictedText)
}

// IsDetailsVisible reports whether the details are shown, meaning the
// restricted-access message is not visible. A failed probe reports false.
func (d *DetailsPage) IsDetailsVisible(ctx context.Context) bool {
	visible, err := d.page.Visible(ctx, d.restricted(), 0)
	if err != nil {
		d.logger.Debug("Restricted message probe failed.", zap.Error(err))
		return false
	}
	return !visible
}

// RestrictedMessage returns the restricted-access message when the page
// shows one.
func (d *DetailsPage) RestrictedMessage(ctx context.Context) (string, bool) {
	text, err := d.page.Text(ctx, d.restricted(), 0)
	if err != nil {
		if !errors.Is(err, browser.ErrNoElement) {
			d.logger.Debug("Restricted message lookup failed.", zap.Error(err))
		}
		return "", false
	}
	return strings.TrimSpace(text), true
}
