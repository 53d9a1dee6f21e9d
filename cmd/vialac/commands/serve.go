package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vialac/vialac/internal/host"
	"github.com/vialac/vialac/internal/logging"
)

func serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the host over HTTP for remote terminals",
		RunE: func(cmd *cobra.Command, args []string) error {
			logCfg := cfg.Log
			logCfg.Path = "stderr"
			log, err := logging.New(logCfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			h, db, err := openHost(log)
			if err != nil {
				return err
			}
			defer db.Close()

			if listen == "" {
				listen = cfg.Host.Listen
			}
			srv := &http.Server{
				Addr:              listen,
				Handler:           host.NewServer(h, log.Named("http"), cfg.Host.RateLimit, cfg.Host.Burst).Routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				log.Info("host listening", zap.String("addr", listen), zap.Strings("commands", h.Commands()))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				log.Info("host shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default host.listen)")
	return cmd
}
