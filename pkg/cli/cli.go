package cli

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/cli/config"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var loggerCloser func()
	var sentryCloser func()

	flags := loggerCfg.Flags()
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "mnemosyne",
		Usage:   "Hybrid memory store for AI agents",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			loggerCloser = f

			sf, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			sentryCloser = sf

			logging.Default().Info("Starting mnemosyne",
				"logger", loggerCfg,
				"sentry", sentryCfg.LogAttrs(),
			)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if sentryCloser != nil {
				sentryCloser()
			}
			if loggerCloser != nil {
				loggerCloser()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdChat(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
