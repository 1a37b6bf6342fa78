// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/checks"
	"github.com/xkilldash9x/searchprobe/internal/config"
	"github.com/xkilldash9x/searchprobe/internal/mocks"
	"github.com/xkilldash9x/searchprobe/internal/observability"
)

// resetForTest clears package and logger state between command runs.
func resetForTest(t *testing.T) {
	t.Helper()

	cfgFile = ""
	observability.ResetForTest()
	original := startBrowser
	t.Cleanup(func() {
		startBrowser = original
		cfgFile = ""
		observability.ResetForTest()
	})
}

// executeCommand runs a fresh command tree and returns everything it printed.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// createTempConfig writes a YAML config file with short bounds so fake pages
// resolve quickly.
func createTempConfig(t *testing.T, extra string) string {
	t.Helper()

	content := `
logger:
  level: error
target:
  url: "http://equities.test/search"
  popular_equity: "Maltacom"
search:
  probe_timeout: 50ms
  probe_interval: 5ms
  fill_timeout: 100ms
  fallback_fill_timeout: 100ms
  outcome_interval: 5ms
  outcome_timeout: 200ms
  signal_timeout: 200ms
  click_timeout: 100ms
  overlay:
    dialog_wait: 20ms
    click_timeout: 100ms
    poll_interval: 5ms
    poll_timeout: 20ms
` + extra

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// fakeSite stands in for the browser. Every tab renders a results table
// filtered by the last submitted query.
type fakeSite struct {
	listings []string

	mu      sync.Mutex
	started []config.BrowserConfig
	opened  int
	stopped bool
}

func (s *fakeSite) factory(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (checks.PageOpener, func(), error) {
	s.mu.Lock()
	s.started = append(s.started, cfg)
	s.mu.Unlock()
	return s.open, func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
	}, nil
}

func (s *fakeSite) open(ctx context.Context) (browser.Page, func(), error) {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()

	page := mocks.NewFakePage()
	page.OnNavigate = s.render
	return page, func() {}, nil
}

func (s *fakeSite) render(p *mocks.FakePage) {
	input := mocks.El("", `input[placeholder*="Enter name"]`, "input")
	input.OnKey = func(p *mocks.FakePage, key string) {
		p.Mutate(func(p *mocks.FakePage) {
			p.Remove("table")
			p.Add(s.table(input.Value))
		})
	}
	p.Add(input, s.table(""))
}

func (s *fakeSite) table(filter string) *mocks.FakeElement {
	table := mocks.El("", "table").With(mocks.El("Name", "tr"))
	for _, name := range s.listings {
		name := name
		if !strings.Contains(strings.ToLower(name), strings.ToLower(filter)) {
			continue
		}
		table.With(mocks.El(name, "tr").With(mocks.El("More information", "button").Clicked(func(p *mocks.FakePage) {
			p.Mutate(func(p *mocks.FakePage) {
				p.Remove("table")
				p.Add(mocks.El("You are not authorized to view "+name, "p"))
			})
		})))
	}
	return table
}
