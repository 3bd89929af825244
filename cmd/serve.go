package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"civic-crawler/api"
)

func serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve records and stats of the latest session over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reader, closeFn, err := openReader(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			gin.SetMode(gin.ReleaseMode)
			log = log.With("component", "api")
			return api.Serve(ctx, cfg.ListenAddr, api.NewRouter(reader, log), log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from listen_addr)")

	return cmd
}
