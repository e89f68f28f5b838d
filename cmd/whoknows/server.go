package whoknows

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/knnymrls/whoknows/pkg/config"
	"github.com/knnymrls/whoknows/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the whoknows HTTP server",
	Long: `Start the whoknows HTTP server.

The server provides:
- POST /api/v1/chat         one JSON answer per message
- POST /api/v1/chat/stream  Server-Sent-Events streaming
- GET  /health, /ready, /live

Configuration can be provided through config files, environment
variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	serverCmd.Flags().String("db-url", "", "Postgres connection URL")
	serverCmd.Flags().String("llm-model", "", "Chat model")
	serverCmd.Flags().String("llm-api-key", "", "Chat model API key")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("session-backend", "", "Session backend (memory, badger)")
	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for turn telemetry Parquet files")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	pipe, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer pipe.close()

	srv := server.New(cfg, pipe.client, pipe.store, pipe.logger)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		pipe.logger.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		pipe.logger.Info("server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}
	if cmd.Flags().Changed("db-url") {
		cfg.Database.URL, _ = cmd.Flags().GetString("db-url")
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model, _ = cmd.Flags().GetString("llm-model")
	}
	if cmd.Flags().Changed("llm-api-key") {
		cfg.LLM.APIKey, _ = cmd.Flags().GetString("llm-api-key")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("session-backend") {
		cfg.Session.Backend, _ = cmd.Flags().GetString("session-backend")
	}
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
		cfg.Telemetry.Enabled = true
	}
}
