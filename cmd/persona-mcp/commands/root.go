package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"persona-mcp/internal/analysis"
	"persona-mcp/internal/config"
	"persona-mcp/internal/logging"
	"persona-mcp/internal/mcp"
	"persona-mcp/internal/telemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	svc     *analysis.Service

	closeSources      func() error
	shutdownTelemetry func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "persona-mcp",
	Short: "Persona-MCP analyses personal time logs across life personas",
	Long: `An MCP Server and CLI that audits a personal time-entry log, forecasts monthly hours
per persona (Holt-Winters), scores recovery readiness and proposes an optimized monthly allocation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		shutdownTelemetry, err = telemetry.InitTracer(cmd.Context(), cfg.Telemetry, Version)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize telemetry")
		}

		svc, closeSources, err = buildService(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize entry sources")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Persona-MCP starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(cfg, svc, Version)
		return server.Start(cmd.Context())
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, rootCmd)
}

// execute releases sources and flushes telemetry whether or not cmd fails.
func execute(ctx context.Context, cmd *cobra.Command) error {
	defer cleanup()
	return cmd.ExecuteContext(ctx)
}

func cleanup() {
	if closeSources != nil {
		if err := closeSources(); err != nil {
			log.Warn().Err(err).Msg("Failed to close entry sources")
		}
		closeSources = nil
	}
	if shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
		shutdownTelemetry = nil
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
