package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capmon/capmon/internal/fetcher"
)

var (
	fetchStrategy string
	fetchVisible  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch current usage without storing it",
	Long: `Fetches the current usage from Mediacom and prints it, without touching
the database or sending alerts. Useful for checking credentials and for
debugging extraction problems.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchStrategy, "strategy", "", "Fetch strategy (direct or session, default from config)")
	fetchCmd.Flags().BoolVar(&fetchVisible, "visible", false, "Show browser window (session strategy only)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	f, err := newFetcher(cfg, fetchStrategy)
	if err != nil {
		return err
	}

	if sf, ok := f.(*fetcher.SessionFetcher); ok {
		sf.SetVisible(fetchVisible)
	}

	fmt.Println("Fetching current usage...")
	obs, err := f.Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching usage: %w", err)
	}

	fmt.Println("✓ Current usage:")
	printObservation(obs)
	return nil
}
