package cli

import (
	"fmt"

	"github.com/deeply-app/deeply/internal/logger"
	"github.com/deeply-app/deeply/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Listen = serveAddr
		}

		srv, err := server.New(cfg)
		if err != nil {
			logger.Error("Server startup failed", logger.F("error", err))
			return fmt.Errorf("failed to start server: %w", err)
		}
		defer srv.Close()

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8002", "Listen address")
}
