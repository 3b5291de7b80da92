package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"persona-mcp/internal/analysis"
	"persona-mcp/internal/api"
	"persona-mcp/internal/api/handler"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis over HTTP and refresh it periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		router := api.NewRouter(handler.NewHandler(svc, cfg.Optimizer), Version)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router.Setup(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if err := svc.Warm(cmd.Context()); err != nil {
			log.Warn().Err(err).Msg("Initial analysis failed; serving on demand")
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			log.Info().Str("addr", addr).Msg("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			refresher := &analysis.Refresher{
				Interval: cfg.RefreshInterval,
				Refresh: func(ctx context.Context) error {
					if err := svc.Refresh(ctx); err != nil {
						return err
					}
					return svc.Warm(ctx)
				},
			}
			return refresher.Run(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info().Msg("Shutting down HTTP server")
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
