package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/capmon/capmon/internal/monitor"
	"github.com/capmon/capmon/internal/notifier"
	"github.com/capmon/capmon/internal/publisher"
)

var runStrategy string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch current usage and alert if it changed",
	Long: `Runs one full monitoring pass: fetches the current usage from Mediacom,
compares it against the most recent stored observation, and on a new
reading appends it to the database and sends the configured alerts.
A reading with an unchanged "as of" timestamp is a no-op.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "Fetch strategy (direct or session, default from config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Run started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	f, err := newFetcher(cfg, runStrategy)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	var notifiers []monitor.Notifier
	if cfg.SMTP.Enabled {
		notifiers = append(notifiers, notifier.NewMailer(cfg.SMTP))
	}
	if cfg.MQTT.Enabled {
		pub, err := publisher.New(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("creating MQTT publisher: %w", err)
		}
		defer pub.Close()
		notifiers = append(notifiers, pub)
	}

	res, err := monitor.New(st, f, notifiers...).Run(cmd.Context())
	if err != nil {
		return err
	}

	if !res.Stored {
		fmt.Println("Provider has not refreshed its counters, nothing to do")
		return nil
	}

	fmt.Printf("✓ New observation stored (record %d)\n", res.RecordID)
	printObservation(res.Current)
	return nil
}
