package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/mnemosyne/pkg/cli/config"
	httpctrl "github.com/secmon-lab/mnemosyne/pkg/controller/http"
	"github.com/secmon-lab/mnemosyne/pkg/service/vectorindex"
	"github.com/secmon-lab/mnemosyne/pkg/service/worker"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/secmon-lab/mnemosyne/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var rebuildInterval time.Duration
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MNEMOSYNE_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "rebuild-interval",
			Usage:       "Interval for periodic vector index rebuild (0 to disable)",
			Sources:     cli.EnvVars("MNEMOSYNE_REBUILD_INTERVAL"),
			Destination: &rebuildInterval,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			idx := vectorindex.New()
			uc := usecase.New(repo, idx)

			// Warm the vector index from the store before accepting traffic.
			// Search must never see an index older than the store contents.
			if err := uc.Memory.Rebuild(ctx); err != nil {
				return goerr.Wrap(err, "failed to rebuild vector index")
			}

			// Optional periodic rebuild to repair drift from crashes or
			// writes by other instances
			if rebuildInterval > 0 {
				rebuildWorker := worker.NewIndexRebuildWorker(uc.Memory, rebuildInterval)
				if err := rebuildWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start index rebuild worker")
				}
				defer rebuildWorker.Stop()
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"backend", repoCfg.Backend(),
					"indexed", idx.Len(),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
