package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/webpress/webpress/internal/server"
	"github.com/webpress/webpress/internal/watcher"
)

// watchDebounce groups bursts of file writes into one notification.
const watchDebounce = 250 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registered bundles over HTTP",
	Long: `Serve loads the bundle manifest and exposes every bundle and each of
its assets under content-addressed URLs.

In debug mode the static root is watched and connected browsers are told
to reload when a file changes. Outside debug mode the watcher can
instead drop memoized content (assets.watch_invalidate) so a
long-running server picks up deployments without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, compressor, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(compressor, cfg, logger)

		watchReload := cfg.Development.Debug && cfg.Development.LiveReload
		watchInvalidate := !cfg.Development.Debug && cfg.Assets.WatchInvalidate
		if watchReload || watchInvalidate {
			w, err := watcher.New(watchDebounce, logger)
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.AddRecursive(cfg.Assets.StaticRoot); err != nil {
				return err
			}
			w.OnChange(func(paths []string) {
				logger.Info(ctx, "assets changed", "count", len(paths))
				if watchInvalidate {
					compressor.Invalidate()
				}
				if watchReload {
					srv.NotifyReload(paths)
				}
			})
			w.Start(ctx)
		}

		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "host to bind to")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on")
	serveCmd.Flags().Bool("live-reload", true, "reload connected browsers on file changes (debug mode)")

	bindFlag("server.host", serveCmd.Flags().Lookup("host"))
	bindFlag("server.port", serveCmd.Flags().Lookup("port"))
	bindFlag("development.live_reload", serveCmd.Flags().Lookup("live-reload"))

	rootCmd.AddCommand(serveCmd)
}
