package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if jsonOutput() {
		printJSON(stats)
		return
	}
	fmt.Printf("Database:  %s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
	fmt.Printf("Turns:     %d\n", stats.TotalTurns)
	fmt.Printf("Snapshots: %d\n", stats.Snapshots)
	for _, ss := range stats.Sessions {
		fmt.Printf("  %-20s %d turns (%d from user)\n", ss.Session, ss.Turns, ss.UserTurns)
	}
}
