// Package browsertest starts real browsers for integration tests in packages
// built on top of internal/browser.
package browsertest

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
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/config"
)

// Timeout bounds a whole browser test.
const Timeout = 90 * time.Second

// ExecPath returns a usable browser binary or skips the test. Browser tests
// are also skipped in -short mode.
func ExecPath(t testing.TB) string {
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

// Config returns browser settings for a headless test browser.
func Config(t testing.TB) config.BrowserConfig {
	t.Helper()
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = ExecPath(t)
	cfg.Headless = true
	cfg.UserDataDir = t.TempDir()
	cfg.PollInterval = 20 * time.Millisecond
	return cfg
}

// Fixture is a running browser with one open session.
type Fixture struct {
	Manager *browser.Manager
	Session *browser.Session
	Logger  *zap.Logger
	Ctx     context.Context
}

// Start launches a browser for t and shuts it down on cleanup.
func Start(t *testing.T) *Fixture {
	t.Helper()
	cfg := Config(t)
	logger := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	t.Cleanup(cancel)

	mgr, err := browser.NewManager(ctx, cfg, logger)
	require.NoError(t, err, "failed to start browser")
	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := mgr.Shutdown(shutdownCtx); err != nil {
			t.Logf("Warning: browser shutdown: %v", err)
		}
	})

	session, err := mgr.NewSession(ctx)
	require.NoError(t, err)
	return &Fixture{Manager: mgr, Session: session, Logger: logger, Ctx: ctx}
}

// ServeHTML serves html at every path until the test ends.
func ServeHTML(t testing.TB, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, html)
	}))
	t.Cleanup(server.Close)
	return server
}
