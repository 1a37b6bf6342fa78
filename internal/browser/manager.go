// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/config"
)

const shutdownGracePeriod = 10 * time.Second

// Manager owns one browser process and hands out isolated tabs.
type Manager struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager launches the browser. It fails when the executable cannot be
// started within ctx.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	log := logger.Named("browser_manager")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), ExecOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debug("chromedp error", zap.String("detail", fmt.Sprintf(format, args...)))
		}),
	)

	// The first Run starts the process and the initial tab.
	startCtx, cancel := CombineContext(browserCtx, ctx)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("Browser started.", zap.Bool("headless", cfg.Headless))
	return &Manager{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		cfg:           cfg,
		logger:        log,
		sessions:      make(map[string]*Session),
	}, nil
}

// baseFlags apply to every browser. Site isolation is off so cross-origin
// iframes stay in the tab's renderer and appear in its frame tree, where
// Session.Frames can reach them. Args may override any of these.
var baseFlags = map[string]interface{}{
	"enable-automation":             true,
	"disable-dev-shm-usage":         true,
	"disable-features":              "IsolateOrigins,site-per-process",
	"disable-site-isolation-trials": true,
}

// ExecOptions builds the allocator options for cfg. Args entries may be bare
// flags or key=value pairs, with or without leading dashes.
func ExecOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	for name, value := range baseFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	for _, arg := range cfg.Args {
		arg = strings.TrimLeft(arg, "-")
		if key, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(key, value))
		} else if arg != "" {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}
	return opts
}

// NewSession opens a tab in a fresh browser context, so cookies and storage
// are not shared with other sessions.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if m.browserCtx.Err() != nil {
		return nil, fmt.Errorf("browser manager is shut down: %w", m.browserCtx.Err())
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx, chromedp.WithNewBrowserContext())
	startCtx, cancel := CombineContext(tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	s := newSession(tabCtx, tabCancel, m.cfg, m.logger)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
	}

	m.logger.Debug("Session opened.", zap.String("session_id", s.ID()))
	return s, nil
}

// ActiveSessions reports how many tabs are open.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every tab and stops the browser process. It returns ctx's
// error if the process does not exit in time.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()
	for _, s := range open {
		s.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := chromedp.Cancel(m.browserCtx)
		m.allocCancel()
		done <- err
	}()

	select {
	case err := <-done:
		m.browserCancel()
		if err != nil && err != context.Canceled {
			m.logger.Warn("Browser did not close cleanly.", zap.Error(err))
		}
		m.logger.Info("Browser stopped.")
		return nil
	case <-shutdownCtx.Done():
		m.browserCancel()
		return fmt.Errorf("browser shutdown timed out: %w", shutdownCtx.Err())
	}
}
