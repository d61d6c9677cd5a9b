package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/younsl/costboard/pkg/pipeline"
	"github.com/younsl/costboard/pkg/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				a.cfg.Listen = listen
			}

			if a.logger.GetLevel() > zerolog.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}

			dashboards := pipeline.NewMemo(a.aggregator, a.cfg.Cache.TTL)
			srv := server.New(dashboards, a.aggregator, server.NewMetrics(), server.Options{
				AllowedOrigins: a.cfg.CORS.AllowedOrigins,
			}, a.logger)

			return srv.Run(ctx, a.cfg.Listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides the config file and PORT")

	return cmd
}
