// internal/browser/browser_helper_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/searchprobe/internal/config"
)

const browserTestTimeout = 60 * time.Second

// findChrome returns a usable browser binary or skips the test.
func findChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if p := os.Getenv("SEARCHPROBE_BROWSER_EXEC_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome/Chromium binary found")
	return ""
}

type testFixture struct {
	Manager *Manager
	Session *Session
	Ctx     context.Context
}

// newTestFixture starts a dedicated browser with one open session.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	execPath := findChrome(t)

	ctx, cancel := context.WithTimeout(context.Background(), browserTestTimeout)
	t.Cleanup(cancel)

	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = execPath
	cfg.Headless = true
	cfg.UserDataDir = t.TempDir()
	cfg.PollInterval = 20 * time.Millisecond

	m, err := NewManager(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err, "failed to start browser")
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := m.Shutdown(shutdownCtx); err != nil {
			t.Logf("Warning: browser shutdown: %v", err)
		}
	})

	s, err := m.NewSession(ctx)
	require.NoError(t, err)
	return &testFixture{Manager: m, Session: s, Ctx: ctx}
}

// createStaticTestServer serves htmlContent at every path.
func createStaticTestServer(t *testing.T, htmlContent string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, htmlContent)
	}))
	t.Cleanup(server.Close)
	return server
}
