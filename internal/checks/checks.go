// Package checks runs the search-and-detail verification flow against a
// live target, one isolated tab per check.
package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/config"
	"github.com/xkilldash9x/searchprobe/internal/detailpage"
	"github.com/xkilldash9x/searchprobe/internal/searchpage"
)

// ErrCheckFailed marks a verdict where the page behaved but the expectation
// did not hold.
var ErrCheckFailed = errors.New("check failed")

// PageOpener opens a fresh, isolated tab. release closes it.
type PageOpener func(ctx context.Context) (page browser.Page, release func(), err error)

// Result is the verdict of one check.
type Result struct {
	Name     string
	Detail   string
	Err      error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Err == nil }

type check struct {
	name string
	run  func(ctx context.Context, search *searchpage.SearchPage, details *detailpage.DetailsPage) (string, error)
}

// Runner executes the checks sequentially.
type Runner struct {
	cfg    config.Interface
	open   PageOpener
	logger *zap.Logger
}

func NewRunner(cfg config.Interface, open PageOpener, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, open: open, logger: logger.Named("checks")}
}

func (r *Runner) checks() []check {
	return []check{
		{"results listed", r.resultsListed},
		{"popular equity details", r.popularEquityDetails},
		{"non-existent equity", r.nonExistentEquity},
	}
}

// Run executes every check and returns one result per check. Only a
// cancelled context stops the run early.
func (r *Runner) Run(ctx context.Context) []Result {
	var results []Result
	for _, c := range r.checks() {
		if ctx.Err() != nil {
			break
		}
		res := r.runOne(ctx, c)
		if res.Passed() {
			r.logger.Info("Check passed.", zap.String("check", res.Name), zap.String("detail", res.Detail), zap.Duration("duration", res.Duration))
		} else {
			r.logger.Error("Check failed.", zap.String("check", res.Name), zap.Error(res.Err), zap.Duration("duration", res.Duration))
		}
		results = append(results, res)
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, c check) Result {
	start := time.Now()
	res := Result{Name: c.name}

	page, release, err := r.open(ctx)
	if err != nil {
		res.Err = fmt.Errorf("failed to open page: %w", err)
		res.Duration = time.Since(start)
		return res
	}
	defer release()

	search := searchpage.New(page, r.cfg.Search(), r.logger)
	details := detailpage.New(page, r.cfg.Detail(), r.logger)

	if err := search.Navigate(ctx, r.cfg.Target().URL); err != nil {
		res.Err = err
	} else {
		res.Detail, res.Err = c.run(ctx, search, details)
	}
	res.Duration = time.Since(start)
	return res
}

// Failed reports whether any result failed or fewer results than checks ran.
func (r *Runner) Failed(results []Result) bool {
	if len(results) < len(r.checks()) {
		return true
	}
	for _, res := range results {
		if !res.Passed() {
			return true
		}
	}
	return false
}

func (r *Runner) resultsListed(ctx context.Context, search *searchpage.SearchPage, _ *detailpage.DetailsPage) (string, error) {
	n := search.CountResults(ctx)
	if n <= 0 {
		return "", fmt.Errorf("%w: expected listed results, found none", ErrCheckFailed)
	}
	return fmt.Sprintf("%d results listed", n), nil
}

func (r *Runner) popularEquityDetails(ctx context.Context, search *searchpage.SearchPage, details *detailpage.DetailsPage) (string, error) {
	name := r.cfg.Target().PopularEquity
	if err := search.Search(ctx, name); err != nil {
		return "", err
	}

	if err := search.SelectResult(ctx, name); err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		r.logger.Info("Named result unavailable, selecting the first one.", zap.String("equity", name), zap.Error(err))
		if err := search.SelectFirstResult(ctx); err != nil {
			return "", err
		}
	}

	restricted := r.cfg.Detail().RestrictedText
	if msg, ok := details.RestrictedMessage(ctx); ok && strings.Contains(msg, restricted) {
		return "restricted: " + msg, nil
	}
	if details.IsDetailsVisible(ctx) {
		return "details visible", nil
	}
	return "", fmt.Errorf("%w: neither details nor the restricted message are shown", ErrCheckFailed)
}

func (r *Runner) nonExistentEquity(ctx context.Context, search *searchpage.SearchPage, _ *detailpage.DetailsPage) (string, error) {
	query := NonExistentQuery(r.cfg.Target())
	if err := search.Search(ctx, query); err != nil {
		return "", err
	}
	if !search.IsEmpty(ctx) {
		return "", fmt.Errorf("%w: results shown for %q", ErrCheckFailed, query)
	}
	return fmt.Sprintf("no results for %q", query), nil
}

// NonExistentQuery returns the configured equity override, or a unique name
// no listing can match.
func NonExistentQuery(target config.TargetConfig) string {
	if q := strings.TrimSpace(target.Equity); q != "" {
		return q
	}
	return "NON_EXISTENT_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
