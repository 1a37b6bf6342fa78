// -- cmd/check.go --
package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/checks"
	"github.com/xkilldash9x/searchprobe/internal/config"
	"github.com/xkilldash9x/searchprobe/internal/observability"
)

const shutdownTimeout = 15 * time.Second

// checkOptions holds the command-line overrides for a check run.
type checkOptions struct {
	url    string
	query  string
	equity string
	headed bool
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Runs the search, detail and empty-result checks against the target page",
		Long: `Opens the target search page in a fresh tab per check and verifies that:
  - results are listed once the page has loaded,
  - the popular equity can be searched and its details opened,
  - a non-existent equity yields an empty result.

The non-existent query is generated unless --equity or EQUITY_NAME is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)

			if err := validateTarget(cfg.Target()); err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, observability.Component("check"), startBrowser)
		},
	}

	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Search page URL (overrides target.url)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Popular equity to search for (overrides target.popular_equity)")
	cmd.Flags().StringVarP(&opts.equity, "equity", "e", "", "Equity expected to have no listing (overrides target.equity)")
	cmd.Flags().BoolVar(&opts.headed, "headed", false, "Run the browser with a visible window")
	return cmd
}

// apply writes the flags the user actually set onto the configuration.
func (o *checkOptions) apply(cmd *cobra.Command, cfg config.Interface) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.SetTargetURL(o.url)
	}
	if flags.Changed("query") {
		cfg.SetPopularEquity(o.query)
	}
	if flags.Changed("equity") {
		cfg.SetTargetEquity(o.equity)
	}
	if flags.Changed("headed") {
		cfg.SetBrowserHeadless(!o.headed)
	}
}

func validateTarget(target config.TargetConfig) error {
	u, err := url.ParseRequestURI(target.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("target url %q must be an absolute http(s) URL", target.URL)
	}
	if target.PopularEquity == "" {
		return fmt.Errorf("target.popular_equity must not be empty")
	}
	return nil
}

// openerFactory starts whatever backs the tabs and returns an opener plus a
// shutdown function.
type openerFactory func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (checks.PageOpener, func(), error)

// startBrowser is swapped out in tests.
var startBrowser openerFactory = newBrowserOpener

func newBrowserOpener(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (checks.PageOpener, func(), error) {
	mgr, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	open := func(ctx context.Context) (browser.Page, func(), error) {
		s, err := mgr.NewSession(ctx)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	shutdown := func() {
		// The run context may already be cancelled; shutdown gets its own budget.
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mgr.Shutdown(sctx); err != nil {
			logger.Warn("Browser shutdown did not complete cleanly", zap.Error(err))
		}
	}
	return open, shutdown, nil
}

func runCheck(ctx context.Context, out io.Writer, cfg config.Interface, logger *zap.Logger, factory openerFactory) error {
	open, shutdown, err := factory(ctx, cfg.Browser(), logger)
	if err != nil {
		return err
	}
	defer shutdown()

	runner := checks.NewRunner(cfg, open, logger)
	results := runner.Run(ctx)
	printResults(out, results)

	if runner.Failed(results) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("check run interrupted: %w", err)
		}
		return fmt.Errorf("%d of %d checks failed", failures(results), len(results))
	}
	return nil
}

func printResults(out io.Writer, results []checks.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTATUS\tDURATION\tDETAIL")
	for _, r := range results {
		status, detail := "PASS", r.Detail
		if !r.Passed() {
			status, detail = "FAIL", r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, status, r.Duration.Round(time.Millisecond), detail)
	}
	w.Flush()
}

func failures(results []checks.Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}
