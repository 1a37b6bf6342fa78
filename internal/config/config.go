// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Search() SearchConfig
	Detail() DetailConfig
	Target() TargetConfig

	// Browser Setters
	SetBrowserHeadless(bool)

	// Target Setters
	SetTargetURL(string)
	SetTargetEquity(string)
	SetPopularEquity(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	SearchCfg  SearchConfig  `mapstructure:"search" yaml:"search"`
	DetailCfg  DetailConfig  `mapstructure:"detail" yaml:"detail"`
	TargetCfg  TargetConfig  `mapstructure:"target" yaml:"target"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Search() SearchConfig   { return c.SearchCfg }
func (c *Config) Detail() DetailConfig   { return c.DetailCfg }
func (c *Config) Target() TargetConfig   { return c.TargetCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)   { c.BrowserCfg.Headless = b }
func (c *Config) SetTargetURL(u string)       { c.TargetCfg.URL = u }
func (c *Config) SetTargetEquity(name string) { c.TargetCfg.Equity = strings.TrimSpace(name) }
func (c *Config) SetPopularEquity(name string) {
	c.TargetCfg.PopularEquity = strings.TrimSpace(name)
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir       string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// PollInterval is the cadence used by the bridge when waiting on element state.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// SearchConfig describes the search surface of the target page and every bound
// used while interacting with it.
type SearchConfig struct {
	ComponentTag        string   `mapstructure:"component_tag" yaml:"component_tag"`
	FallbackSelectors   []string `mapstructure:"fallback_selectors" yaml:"fallback_selectors"`
	ResultItemSelector  string   `mapstructure:"result_item_selector" yaml:"result_item_selector"`
	EmptyMarkerSelector string   `mapstructure:"empty_marker_selector" yaml:"empty_marker_selector"`
	RowSelector         string   `mapstructure:"row_selector" yaml:"row_selector"`
	SubmitSelector      string   `mapstructure:"submit_selector" yaml:"submit_selector"`
	ItemActionSelector  string   `mapstructure:"item_action_selector" yaml:"item_action_selector"`
	ActionText          string   `mapstructure:"action_text" yaml:"action_text"`
	NoResultsText       string   `mapstructure:"no_results_text" yaml:"no_results_text"`

	Overlay OverlayConfig `mapstructure:"overlay" yaml:"overlay"`

	ProbeTimeout        time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	ProbeInterval       time.Duration `mapstructure:"probe_interval" yaml:"probe_interval"`
	FillTimeout         time.Duration `mapstructure:"fill_timeout" yaml:"fill_timeout"`
	FallbackFillTimeout time.Duration `mapstructure:"fallback_fill_timeout" yaml:"fallback_fill_timeout"`
	OutcomeInterval     time.Duration `mapstructure:"outcome_interval" yaml:"outcome_interval"`
	OutcomeTimeout      time.Duration `mapstructure:"outcome_timeout" yaml:"outcome_timeout"`
	SignalTimeout       time.Duration `mapstructure:"signal_timeout" yaml:"signal_timeout"`
	ClickTimeout        time.Duration `mapstructure:"click_timeout" yaml:"click_timeout"`
	SettleDelay         time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// OverlayConfig configures the consent overlay dismissal strategies.
type OverlayConfig struct {
	DialogSelector string        `mapstructure:"dialog_selector" yaml:"dialog_selector"`
	AcceptText     string        `mapstructure:"accept_text" yaml:"accept_text"`
	DialogWait     time.Duration `mapstructure:"dialog_wait" yaml:"dialog_wait"`
	ClickTimeout   time.Duration `mapstructure:"click_timeout" yaml:"click_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout" yaml:"poll_timeout"`
}

// DetailConfig configures the detail page probe.
type DetailConfig struct {
	RestrictedText string `mapstructure:"restricted_text" yaml:"restricted_text"`
}

// TargetConfig names the page under test and the queries driven against it.
type TargetConfig struct {
	URL           string `mapstructure:"url" yaml:"url"`
	PopularEquity string `mapstructure:"popular_equity" yaml:"popular_equity"`
	// Equity overrides the generated non-existent query when set.
	Equity string `mapstructure:"equity" yaml:"equity"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// DefaultSearchConfig returns the search section of the default configuration.
func DefaultSearchConfig() SearchConfig {
	return NewDefaultConfig().SearchCfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "searchprobe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.action_timeout", "5s")
	v.SetDefault("browser.poll_interval", "100ms")

	// -- Search surface --
	v.SetDefault("search.component_tag", "md-stock-search-list")
	v.SetDefault("search.fallback_selectors", []string{
		`input[placeholder*="Enter name"]`,
		`input[placeholder*="name, ISIN"]`,
		`input[aria-label*="Enter name"]`,
		`input[type="search"]`,
		`input`,
	})
	v.SetDefault("search.result_item_selector", ".search-result-item")
	v.SetDefault("search.empty_marker_selector", ".no-results")
	v.SetDefault("search.row_selector", "table tr")
	v.SetDefault("search.submit_selector", `button[type="submit"]`)
	v.SetDefault("search.item_action_selector", "button")
	v.SetDefault("search.action_text", "More information")
	v.SetDefault("search.no_results_text", "No results")
	v.SetDefault("search.probe_timeout", "1s")
	v.SetDefault("search.probe_interval", "100ms")
	v.SetDefault("search.fill_timeout", "3s")
	v.SetDefault("search.fallback_fill_timeout", "2s")
	v.SetDefault("search.outcome_interval", "250ms")
	v.SetDefault("search.outcome_timeout", "5s")
	v.SetDefault("search.signal_timeout", "3s")
	v.SetDefault("search.click_timeout", "5s")
	v.SetDefault("search.settle_delay", "1s")

	// -- Consent overlay --
	v.SetDefault("search.overlay.dialog_selector", `[role="alertdialog"]`)
	v.SetDefault("search.overlay.accept_text", "Accept")
	v.SetDefault("search.overlay.dialog_wait", "4s")
	v.SetDefault("search.overlay.click_timeout", "2s")
	v.SetDefault("search.overlay.poll_interval", "250ms")
	v.SetDefault("search.overlay.poll_timeout", "5s")

	// -- Detail page --
	v.SetDefault("detail.restricted_text", "You are not authorized")

	// -- Target --
	v.SetDefault("target.url", "https://www.medirect.com.mt/invest/equities/search")
	v.SetDefault("target.popular_equity", "Maltacom")
	v.SetDefault("target.equity", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// EQUITY_NAME is honored for compatibility with existing CI pipelines.
	if err := v.BindEnv("target.equity", "SEARCHPROBE_TARGET_EQUITY", "EQUITY_NAME"); err != nil {
		return nil, fmt.Errorf("error binding equity environment: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.TargetCfg.Equity = strings.TrimSpace(cfg.TargetCfg.Equity)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.BrowserCfg.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be a positive duration")
	}
	if err := c.SearchCfg.Validate(); err != nil {
		return fmt.Errorf("search configuration invalid: %w", err)
	}
	if c.DetailCfg.RestrictedText == "" {
		return fmt.Errorf("detail.restricted_text is required")
	}
	return nil
}

// Validate checks the search surface settings. Every wait must be bounded.
func (s *SearchConfig) Validate() error {
	if s.ComponentTag == "" {
		return fmt.Errorf("component_tag is required")
	}
	if s.ResultItemSelector == "" || s.EmptyMarkerSelector == "" || s.RowSelector == "" {
		return fmt.Errorf("result_item_selector, empty_marker_selector and row_selector are required")
	}
	required := []struct{ name, value string }{
		{"submit_selector", s.SubmitSelector},
		{"item_action_selector", s.ItemActionSelector},
		{"action_text", s.ActionText},
		{"no_results_text", s.NoResultsText},
		{"overlay.dialog_selector", s.Overlay.DialogSelector},
		{"overlay.accept_text", s.Overlay.AcceptText},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	bounds := map[string]time.Duration{
		"probe_timeout":         s.ProbeTimeout,
		"probe_interval":        s.ProbeInterval,
		"fill_timeout":          s.FillTimeout,
		"fallback_fill_timeout": s.FallbackFillTimeout,
		"outcome_interval":      s.OutcomeInterval,
		"outcome_timeout":       s.OutcomeTimeout,
		"signal_timeout":        s.SignalTimeout,
		"click_timeout":         s.ClickTimeout,
		"overlay.dialog_wait":   s.Overlay.DialogWait,
		"overlay.click_timeout": s.Overlay.ClickTimeout,
		"overlay.poll_interval": s.Overlay.PollInterval,
		"overlay.poll_timeout":  s.Overlay.PollTimeout,
	}
	for name, d := range bounds {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}
	if s.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must not be negative")
	}
	return nil
}
