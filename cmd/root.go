// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/config"
	"github.com/xkilldash9x/farescout-cli/internal/observability"
)

// contextKey scopes values stashed in the command context.
type contextKey string

// configKey carries the validated *config.Config from the root command's
// PersistentPreRunE to subcommand RunE functions.
const configKey contextKey = "config"

// newRootCmd builds the root command. Configuration is loaded once in
// PersistentPreRunE and handed to subcommands via the command context, so
// there is no package-level config singleton to reset between tests.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "farescout",
		Short: "Farescout walks an airline booking funnel and reports the cheapest fare.",
		Long: `Farescout drives a real browser through a flight-booking web funnel:
search, results, passenger details, seats and extras, stopping at the
payment page without ever submitting it. Along the way it detects page
states with layered strategies, dismisses consent overlays, and selects
the cheapest fare it can find.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The version subcommand must work even with a broken config file.
			if cmd.Name() == "version" {
				return nil
			}

			v := viper.New()
			config.SetDefaults(v)
			if err := loadConfigSources(v, cfgFile); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded.",
				zap.String("version", Version),
				zap.String("config_file", cfgFile),
			)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./farescout.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadConfigSources layers the optional config file and FARESCOUT_*
// environment variables over the defaults already present in v.
func loadConfigSources(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("farescout")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FARESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config file: %w", err)
		}
		// No config file found; defaults and env vars carry the run.
	}
	return nil
}

// configFromContext retrieves the configuration stored by PersistentPreRunE.
func configFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration missing from command context")
	}
	return cfg, nil
}

// Execute runs the CLI under a signal-aware context so an interrupt aborts
// the funnel walk gracefully instead of leaving browser sessions behind.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
