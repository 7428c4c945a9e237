// File: internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Supported browser engine names.
const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Funnel  FunnelConfig  `mapstructure:"funnel" yaml:"funnel"`
	Search  SearchConfig  `mapstructure:"search" yaml:"search"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	// Run gets its marching orders from CLI flags, not the config file.
	Run RunConfig `mapstructure:"-" yaml:"-"`
}

// LoggerConfig controls the global zap logger.
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

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig configures the rendering engine sessions.
type BrowserConfig struct {
	// Engines lists the rendering engines to run; each gets its own fully
	// isolated session.
	Engines           []string      `mapstructure:"engines" yaml:"engines"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	// Headers are sent with every request on top of the engine defaults,
	// e.g. Accept-Language.
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// FunnelConfig holds the time budgets governing state detection and
// option selection.
type FunnelConfig struct {
	// StateBudget is the overall budget for confirming one target state.
	StateBudget time.Duration `mapstructure:"state_budget" yaml:"state_budget"`
	// StrategyBudget caps a single detection strategy's wait.
	StrategyBudget time.Duration `mapstructure:"strategy_budget" yaml:"strategy_budget"`
	// OverlayBudget is the primary window for consent-overlay dismissal.
	OverlayBudget time.Duration `mapstructure:"overlay_budget" yaml:"overlay_budget"`
	// PollInterval is the re-check cadence of bounded waits.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// StepRate paces funnel steps (steps per second) to stay polite.
	StepRate  float64 `mapstructure:"step_rate" yaml:"step_rate"`
	StepBurst int     `mapstructure:"step_burst" yaml:"step_burst"`
}

// SearchConfig describes the itinerary fed into the search form.
type SearchConfig struct {
	Origin      string `mapstructure:"origin" yaml:"origin"`
	Destination string `mapstructure:"destination" yaml:"destination"`
	// DaysAhead offsets the departure date from today.
	DaysAhead int `mapstructure:"days_ahead" yaml:"days_ahead"`
	// ReturnAfterDays sets the return leg offset from departure; 0 means one-way.
	ReturnAfterDays int    `mapstructure:"return_after_days" yaml:"return_after_days"`
	Travellers      int    `mapstructure:"travellers" yaml:"travellers"`
	Cabin           string `mapstructure:"cabin" yaml:"cabin"`
}

// ReportConfig controls run-report artifacts.
type ReportConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RunConfig carries per-invocation parameters supplied on the command line.
type RunConfig struct {
	TargetURL string
	Timeout   time.Duration
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "farescout")
	v.SetDefault("logger.log_file", "farescout.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.engines", []string{EngineChromedp})
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.post_load_wait", "2s")

	// -- Funnel --
	v.SetDefault("funnel.state_budget", "30s")
	v.SetDefault("funnel.strategy_budget", "10s")
	v.SetDefault("funnel.overlay_budget", "5s")
	v.SetDefault("funnel.poll_interval", "250ms")
	v.SetDefault("funnel.step_rate", 1.0)
	v.SetDefault("funnel.step_burst", 1)

	// -- Search --
	v.SetDefault("search.origin", "YYZ")
	v.SetDefault("search.destination", "YVR")
	v.SetDefault("search.days_ahead", 21)
	v.SetDefault("search.return_after_days", 7)
	v.SetDefault("search.travellers", 1)
	v.SetDefault("search.cabin", "")

	// -- Report --
	v.SetDefault("report.dir", "")
	v.SetDefault("report.format", "json")
}

// NewDefaultConfig returns a configuration populated with defaults only.
// Intended for tests and for callers that configure everything through flags.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// NewConfigFromViper creates a validated configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes and bounds-checks the configuration.
func (c *Config) Validate() error {
	if len(c.Browser.Engines) == 0 {
		return fmt.Errorf("browser.engines must name at least one engine")
	}
	seen := make(map[string]bool, len(c.Browser.Engines))
	for i, e := range c.Browser.Engines {
		name := strings.ToLower(strings.TrimSpace(e))
		switch name {
		case EngineChromedp, EnginePlaywright:
		default:
			return fmt.Errorf("browser.engines: unknown engine %q", e)
		}
		if seen[name] {
			return fmt.Errorf("browser.engines: engine %q listed twice", name)
		}
		seen[name] = true
		c.Browser.Engines[i] = name
	}

	if c.Funnel.StateBudget <= 0 {
		return fmt.Errorf("funnel.state_budget must be positive")
	}
	if c.Funnel.StrategyBudget <= 0 {
		return fmt.Errorf("funnel.strategy_budget must be positive")
	}
	if c.Funnel.OverlayBudget <= 0 {
		return fmt.Errorf("funnel.overlay_budget must be positive")
	}
	if c.Funnel.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("funnel.poll_interval must be at least 10ms")
	}
	if c.Funnel.StepRate <= 0 {
		return fmt.Errorf("funnel.step_rate must be positive")
	}
	if c.Funnel.StepBurst <= 0 {
		c.Funnel.StepBurst = 1
	}

	if c.Search.Travellers <= 0 {
		return fmt.Errorf("search.travellers must be positive")
	}
	if c.Search.DaysAhead < 0 {
		return fmt.Errorf("search.days_ahead must not be negative")
	}
	if c.Search.ReturnAfterDays < 0 {
		return fmt.Errorf("search.return_after_days must not be negative")
	}
	c.Search.Origin = strings.ToUpper(strings.TrimSpace(c.Search.Origin))
	c.Search.Destination = strings.ToUpper(strings.TrimSpace(c.Search.Destination))
	c.Search.Cabin = strings.TrimSpace(c.Search.Cabin)

	if c.Report.Format != "json" {
		return fmt.Errorf("report.format: unsupported format %q", c.Report.Format)
	}
	if c.Report.Dir == "" {
		dir, err := defaultReportDir()
		if err != nil {
			return fmt.Errorf("resolving default report dir: %w", err)
		}
		c.Report.Dir = dir
	}
	return nil
}

// defaultReportDir places run reports under the user's home directory.
func defaultReportDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".farescout", "reports"), nil
}
