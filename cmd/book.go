// File: cmd/book.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/config"
	"github.com/xkilldash9x/farescout-cli/internal/observability"
	"github.com/xkilldash9x/farescout-cli/internal/orchestrator"
	"github.com/xkilldash9x/farescout-cli/internal/reporting"
)

// newBookCmd creates the `book` command, the main entry point of the tool.
func newBookCmd() *cobra.Command {
	bookCmd := &cobra.Command{
		Use:   "book <target-url>",
		Short: "Walks the target site's booking funnel up to the payment page",
		Long: `Book runs the full funnel walk against the given booking site: it fills
the search form with the configured itinerary, picks the cheapest fare on
the results page, completes passenger details, skips seats and extras
where possible, and stops the moment the payment form is confirmed on
screen. Nothing is ever purchased.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd)
			if err != nil {
				return err
			}
			applyBookFlags(cfg, cmd.Flags())

			// Flag overrides can introduce bad values, so validate again.
			if err := cfg.Validate(); err != nil {
				return err
			}

			cfg.Run.TargetURL = normalizeTarget(args[0])
			cfg.Run.Timeout, _ = cmd.Flags().GetDuration("timeout")

			return runBooking(cmd, cfg)
		},
	}

	f := bookCmd.Flags()
	f.String("origin", "", "Origin airport IATA code (overrides config)")
	f.String("destination", "", "Destination airport IATA code (overrides config)")
	f.Int("days-ahead", 0, "Days from today to the departure date (overrides config)")
	f.Int("return-days", 0, "Days between departure and return; 0 books one-way (overrides config)")
	f.Int("travellers", 0, "Number of travellers (overrides config)")
	f.String("cabin", "", "Cabin tier to activate on the results page, e.g. business")
	f.StringSlice("engines", nil, "Rendering engines to run, comma separated (chromedp, playwright)")
	f.Bool("headless", true, "Run the browser engines headless")
	f.StringP("output", "o", "", "Directory for the JSON run report (overrides config)")
	f.Duration("timeout", 10*time.Minute, "Overall wall-clock budget for the run")

	return bookCmd
}

// applyBookFlags copies explicitly set flags over the file and environment
// configuration. Flags the user did not touch leave the configured values
// alone, preserving viper's precedence order.
func applyBookFlags(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("origin") {
		cfg.Search.Origin, _ = fs.GetString("origin")
	}
	if fs.Changed("destination") {
		cfg.Search.Destination, _ = fs.GetString("destination")
	}
	if fs.Changed("days-ahead") {
		cfg.Search.DaysAhead, _ = fs.GetInt("days-ahead")
	}
	if fs.Changed("return-days") {
		cfg.Search.ReturnAfterDays, _ = fs.GetInt("return-days")
	}
	if fs.Changed("travellers") {
		cfg.Search.Travellers, _ = fs.GetInt("travellers")
	}
	if fs.Changed("cabin") {
		cfg.Search.Cabin, _ = fs.GetString("cabin")
	}
	if fs.Changed("engines") {
		cfg.Browser.Engines, _ = fs.GetStringSlice("engines")
	}
	if fs.Changed("headless") {
		cfg.Browser.Headless, _ = fs.GetBool("headless")
	}
	if fs.Changed("output") {
		cfg.Report.Dir, _ = fs.GetString("output")
	}
}

// normalizeTarget defaults the scheme to https when the user omits it.
func normalizeTarget(target string) string {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return "https://" + target
	}
	return target
}

// runBooking drives one full run and renders its artifacts.
func runBooking(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	if cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Run.Timeout)
		defer cancel()
	}

	logger := observability.GetLogger()
	runID := uuid.New().String()
	logger.Info("Starting booking run",
		zap.String("run_id", runID),
		zap.String("target", cfg.Run.TargetURL),
		zap.Strings("engines", cfg.Browser.Engines),
		zap.String("origin", cfg.Search.Origin),
		zap.String("destination", cfg.Search.Destination),
	)

	orch, err := orchestrator.New(cfg, logger, orchestrator.Factories())
	if err != nil {
		return err
	}

	report, err := orch.Run(ctx, runID)
	if report != nil {
		renderReport(cmd, cfg, logger, report)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("run aborted by user signal")
		}
		return err
	}

	if !report.AllCompleted() {
		failed := 0
		for _, run := range report.Runs {
			if !run.Completed() {
				failed++
			}
		}
		return fmt.Errorf("%d of %d engine runs did not reach the payment checkpoint", failed, len(report.Runs))
	}
	return nil
}

// renderReport writes the JSON artifact and prints the console tables.
func renderReport(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, report *reporting.RunReport) {
	path, err := reporting.NewWriter(cfg.Report.Dir, logger).Write(report)
	if err != nil {
		logger.Warn("Could not write the run report.", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	reporting.WriteSummary(out, report)
	for _, run := range report.Runs {
		fmt.Fprintln(out)
		reporting.WriteSteps(out, run)
	}
	if path != "" {
		fmt.Fprintf(out, "\nFull report: %s\n", path)
	}
}
