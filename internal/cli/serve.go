package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/tasktracker/internal/api"
)

var (
	serveListen string
	serveStore  string
	serveData   string
)

// serveCmd runs the HTTP API until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Server.Listen = serveListen
		}
		if serveStore != "" {
			cfg.Store.Driver = serveStore
		}
		if serveData != "" {
			cfg.Store.Path = serveData
		}

		rt, cleanup, err := bootstrap(ctx, cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer cleanup()

		server := api.NewServer(rt.manager, rt.logger, cfg.Server.Listen)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(server.Start)
		g.Go(func() error {
			// Wait for a signal or a listener failure, then drain.
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (host:port)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "store driver (json, sqlite)")
	serveCmd.Flags().StringVar(&serveData, "data", "", "snapshot file or database path")
}
