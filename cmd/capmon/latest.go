package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent stored observation",
	RunE:  runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
}

func runLatest(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	obs, err := st.Latest(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading latest observation: %w", err)
	}

	if obs.IsZero() {
		fmt.Println("No observations stored yet")
		return nil
	}

	fmt.Println("Latest observation:")
	printObservation(obs)
	return nil
}
