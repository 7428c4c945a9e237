// File: internal/config/config_test.go
package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, []string{EngineChromedp}, cfg.Browser.Engines)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 30*time.Second, cfg.Funnel.StateBudget)
	assert.Equal(t, 10*time.Second, cfg.Funnel.StrategyBudget)
	assert.Equal(t, 250*time.Millisecond, cfg.Funnel.PollInterval)
	assert.Equal(t, 1, cfg.Search.Travellers)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.NotEmpty(t, cfg.Report.Dir, "default report dir should be resolved")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Engine Normalization", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Browser.Engines = []string{" Chromedp ", "playwright"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, []string{EngineChromedp, EnginePlaywright}, cfg.Browser.Engines)
	})

	t.Run("Engine Rejection", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Browser.Engines = nil
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one engine")

		cfg = NewDefaultConfig()
		cfg.Browser.Engines = []string{"netscape"}
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown engine")

		cfg = NewDefaultConfig()
		cfg.Browser.Engines = []string{EngineChromedp, "CHROMEDP"}
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listed twice")
	})

	t.Run("Funnel Budgets", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Funnel.StateBudget = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "state_budget")

		cfg = NewDefaultConfig()
		cfg.Funnel.PollInterval = time.Millisecond
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "poll_interval")

		cfg = NewDefaultConfig()
		cfg.Funnel.StepBurst = 0
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 1, cfg.Funnel.StepBurst, "zero burst is clamped, not rejected")
	})

	t.Run("Search Normalization", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Search.Origin = " yyz "
		cfg.Search.Destination = "lhr"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "YYZ", cfg.Search.Origin)
		assert.Equal(t, "LHR", cfg.Search.Destination)

		cfg = NewDefaultConfig()
		cfg.Search.Travellers = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "travellers")

		cfg = NewDefaultConfig()
		cfg.Search.DaysAhead = -1
		require.Error(t, cfg.Validate())
	})

	t.Run("Report Format", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Report.Format = "xml"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlConfig := `
logger:
  level: debug
  format: json
browser:
  engines: [chromedp, playwright]
  headless: false
  navigation_timeout: 45s
funnel:
  state_budget: 20s
  poll_interval: 100ms
search:
  origin: sfo
  destination: nrt
  days_ahead: 10
  travellers: 2
report:
  dir: /tmp/farescout-test
`
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yamlConfig)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logger.Level)
		assert.Equal(t, "json", cfg.Logger.Format)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
		assert.Equal(t, 20*time.Second, cfg.Funnel.StateBudget)
		assert.Equal(t, 100*time.Millisecond, cfg.Funnel.PollInterval)
		assert.Equal(t, "SFO", cfg.Search.Origin)
		assert.Equal(t, "NRT", cfg.Search.Destination)
		assert.Equal(t, 10, cfg.Search.DaysAhead)
		assert.Equal(t, 2, cfg.Search.Travellers)
		assert.Equal(t, "/tmp/farescout-test", cfg.Report.Dir)
		// Values absent from the file fall back to defaults.
		assert.Equal(t, 10*time.Second, cfg.Funnel.StrategyBudget)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("browser.engines", []string{"netscape"})

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "unknown engine")
	})

	t.Run("Environment Variable Override", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetEnvPrefix("FARESCOUT")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		t.Setenv("FARESCOUT_SEARCH_ORIGIN", "ams")
		t.Setenv("FARESCOUT_FUNNEL_STATE_BUDGET", "12s")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "AMS", cfg.Search.Origin)
		assert.Equal(t, 12*time.Second, cfg.Funnel.StateBudget)
	})
}
