package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offscroll/scrollguard/internal/config"
	"github.com/offscroll/scrollguard/internal/logger"
	"github.com/offscroll/scrollguard/internal/session"
)

// Version information set via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "scrollguard",
	Short: "Behavioral doom-scrolling detection engine",
	Long: `Scrollguard scores scroll event streams for doom-scrolling behavior.

It classifies visible content, computes a weighted confidence from scroll
velocity, consistency, duration, pauses and time of day, aggregates events
into sessions, and learns personalized thresholds from session history.

Configure in:
  - ~/.scrollguard/config.yaml`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scrollguard %s\n", Version)
		fmt.Printf("  commit: %s\n", Commit)
		fmt.Printf("  built:  %s\n", Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Override config file path")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the effective configuration, honoring the --config flag,
// and initializes logging from it.
func loadConfig() (*config.Config, error) {
	loader, err := config.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}

	var cfg *config.Config
	if configFile != "" {
		cfg, err = loader.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = loader.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if verbose {
		_ = logger.Init("debug", cfg.Settings.LogFile)
	} else if cfg.Settings.LogLevel != "" {
		_ = logger.Init(cfg.Settings.LogLevel, cfg.Settings.LogFile)
	} else {
		logger.InitQuiet()
	}

	return cfg, nil
}

// openStore opens the session record store at the configured path.
func openStore(cfg *config.Config) (session.RecordStore, error) {
	store, err := session.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}
