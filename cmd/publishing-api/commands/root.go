package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/techpress/publishing-api/internal/pkg/config"
	"github.com/techpress/publishing-api/pkg/logger"
)

const serviceName = "publishing-api"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Role-based publishing API for technical articles",
	Long: `publishing-api serves the article publishing REST API backed by MongoDB
and Redis.

Configuration is read from the environment (JWT_SECRET, MONGO_URI, REDIS_ADDR, ...).`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, indexesCmd, seedAdminCmd)
}

// bootstrap loads the configuration and initialises the process logger.
func bootstrap(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
		Env:     cfg.Env,
	})
	return cfg, log, nil
}
