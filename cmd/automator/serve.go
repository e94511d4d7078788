package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/automator/internal/cli"
	"github.com/aretw0/automator/internal/presentation/tui"
	httpAdapter "github.com/aretw0/automator/pkg/adapters/http"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the condition group service, exposing a JSON API over HTTP.

Routes live under /recipes/{recipeID}/groups. The condition catalog is served on
/conditions, Prometheus metrics on /metrics and change events (SSE) on /events.
With --watch the catalog is reloaded when its source changes.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "address to listen on (default :8080)")
	serveCmd.Flags().Bool("watch", false, "reload the condition catalog when it changes")
	serveCmd.Flags().String("store", "", "group store driver: memory, file or redis")
	serveCmd.Flags().String("redis-addr", "", "redis address for the redis store")

	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("catalog.watch", serveCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("store.driver", serveCmd.Flags().Lookup("store"))
	_ = viper.BindPFlag("store.redis.addr", serveCmd.Flags().Lookup("redis-addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	sigCtx := cli.NewSignalContext(cmd.Context())
	defer sigCtx.Cancel()

	streams := httpAdapter.NewStreamManager(logger)
	deps, err := cli.Build(sigCtx, cfg, logger,
		groups.WithHooks(cli.ChainHooks(streams.Hooks(), cli.DebugHooks(logger))),
	)
	if err != nil {
		return err
	}
	defer deps.Close()

	opts := []httpAdapter.Option{
		httpAdapter.WithStreams(streams),
		httpAdapter.WithVersion(version()),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(deps.Prometheus, promhttp.HandlerOpts{})),
	}
	if deps.Reloader != nil {
		opts = append(opts, httpAdapter.WithWatcher(deps.Reloader))
		go func() {
			if err := deps.Reloader.Run(sigCtx); err != nil {
				logger.Error("Catalog watcher stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpAdapter.NewHandler(deps.Service, deps.Catalog, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !cfg.Log.JSON {
		tui.PrintBanner(os.Stderr, version())
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting automator server", "addr", srv.Addr, "store", cfg.Store.Driver, "watch", deps.Reloader != nil)
		serverErrors <- srv.ListenAndServe()
	}()

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-sigCtx.Done():
		logger.Info("Start shutdown", "signal", sigCtx.Signal())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return err
			}
		}
		logger.Info("Automator server stopped gracefully")
		return nil
	}
}
