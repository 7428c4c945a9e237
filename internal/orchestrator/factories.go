// File: internal/orchestrator/factories.go
package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/browser/cdp"
	"github.com/xkilldash9x/farescout-cli/internal/browser/pw"
	"github.com/xkilldash9x/farescout-cli/internal/config"
)

// Factories returns the production engine constructors.
func Factories() map[string]DriverFactory {
	return map[string]DriverFactory{
		config.EngineChromedp: func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (browser.Driver, error) {
			return cdp.New(ctx, cfg, logger)
		},
		config.EnginePlaywright: func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (browser.Driver, error) {
			return pw.New(ctx, cfg, logger)
		},
	}
}
