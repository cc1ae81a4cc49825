package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/capmon/capmon/internal/config"
	"github.com/capmon/capmon/internal/fetcher"
	"github.com/capmon/capmon/internal/store"
	"github.com/capmon/capmon/pkg/models"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "capmon",
	Short: "Monitor Mediacom internet data usage and alert on changes",
	Long: `Capmon polls Mediacom for the current internet data usage, keeps an
append-only history in a local SQLite database, and sends an email alert
whenever the provider reports a new reading. It is meant to be run
periodically from cron or a systemd timer.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./usage.db)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "usage.db"
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openStore opens the usage store
func openStore() (*store.Store, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return store.New(path)
}

// newFetcher builds the configured fetch strategy. An explicit strategy
// argument overrides the config.
func newFetcher(cfg *config.Config, strategy string) (fetcher.Fetcher, error) {
	if strategy == "" {
		strategy = cfg.GetStrategy()
	}

	switch strategy {
	case "direct":
		if cfg.Provider.CustomerID == "" {
			return nil, fmt.Errorf("provider customer_id is required for the direct strategy")
		}
		return fetcher.NewDirectFetcher(cfg.Provider.CustomerID, cfg.Provider.UsageURL), nil
	case "session":
		if cfg.Provider.Username == "" || cfg.Provider.Password == "" {
			return nil, fmt.Errorf("provider username and password are required for the session strategy")
		}
		return fetcher.NewSessionFetcher(cfg.Provider.Username, cfg.Provider.Password, cfg.GetFetchTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s (available: direct, session)", strategy)
	}
}

// printObservation writes one observation as an aligned block
func printObservation(o models.Observation) {
	if o.IsZero() {
		fmt.Println("  (no data)")
		return
	}

	fmt.Printf("  As of:      %s\n", o.ObservedAt.Format(store.TimestampLayout))
	fmt.Printf("  Total:      %.1f GB\n", o.TotalGB)
	fmt.Printf("  Upload:     %.1f GB\n", o.UploadGB)
	fmt.Printf("  Download:   %.1f GB\n", o.DownloadGB)
	if o.AllowanceGB > 0 {
		fmt.Printf("  Allowance:  %.1f GB (%.0f GB expected to date)\n", o.AllowanceGB, o.AllowanceToDate)
	}
	if !o.PeriodStart.IsZero() {
		fmt.Printf("  Period:     %s - %s\n", o.PeriodStart.Format("2006-01-02"), o.PeriodEnd.Format("2006-01-02"))
	}
}
