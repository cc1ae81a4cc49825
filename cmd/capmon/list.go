package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capmon/capmon/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored usage history",
	Long:  `Displays all stored usage observations from the database, newest first.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	observations, err := st.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing observations: %w", err)
	}

	if len(observations) == 0 {
		fmt.Println("No observations stored yet")
		return nil
	}

	fmt.Println("\nUsage history:")
	fmt.Println("------------------------------------------------------------------------")
	fmt.Printf("%-20s  %10s  %10s  %10s  %10s\n", "As of", "Total GB", "Up GB", "Down GB", "Allowance")
	fmt.Println("------------------------------------------------------------------------")

	for _, obs := range observations {
		allowance := "-"
		if obs.AllowanceGB > 0 {
			allowance = fmt.Sprintf("%.1f", obs.AllowanceGB)
		}
		fmt.Printf("%-20s  %10.1f  %10.1f  %10.1f  %10s\n",
			obs.ObservedAt.Format(store.TimestampLayout),
			obs.TotalGB, obs.UploadGB, obs.DownloadGB, allowance)
	}

	fmt.Println("------------------------------------------------------------------------")
	fmt.Printf("%d observations\n", len(observations))
	return nil
}
