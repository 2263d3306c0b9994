// AgriPrice: Philippine agricultural commodity price monitor
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/agriprice/api"
	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/internal/logging"
	"github.com/seenimoa/agriprice/internal/svc"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agriprice",
	Short: "AgriPrice — agricultural commodity price monitor",
	Long: `AgriPrice resolves a catalog of Philippine agricultural commodities to
current retail prices. It reads previously stored report rows, the last
cached snapshot, the published price report, or a synthetic estimate, in
that order, and attaches short-term forecasts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return logging.Setup(cfg.Logging)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, error, severe)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(statusCmd)
}

// services builds the service context for one command run.
func services(ctx context.Context) (*svc.ServiceContext, error) {
	return svc.NewServiceContext(ctx, cfg)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("AgriPrice %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		logging.LogConfigSummary(cfg)
		api.Version = version
		srv, err := api.NewServer(sc)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting AgriPrice API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  AgriPrice — System Status")
		fmt.Println("═══════════════════════════════════════")
		now := utils.NowPHT()
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (PHT):    %s\n", now.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Season:        %s\n", utils.SeasonName(now.Month()))
		fmt.Println()

		fmt.Println("  Configuration:")
		for _, line := range logging.ConfigSummaryLines(cfg) {
			fmt.Printf("    %s\n", line)
		}
		fmt.Println()

		fmt.Println("  Secrets:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
