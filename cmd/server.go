package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitchside/apiserver/config"
	"github.com/pitchside/apiserver/internal/logging"
	"github.com/pitchside/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the pitchside API server",
	Long: `Starts the pitchside API server. Usage:

	pitchside server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger := logging.New(os.Stdout, cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to start server", "error", err)
			return err
		}
		if err := srv.Run(ctx); err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

