package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/calassist/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the conversation log of a session",
		Run:   runHistory,
	}

	cmd.Flags().StringP("session", "s", "", "Conversation session (default from config)")
	cmd.Flags().IntP("limit", "l", 0, "Only the newest N turns (0 means all)")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	session := sessionFlag(cmd, cfg)

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	turns, err := s.History(cmd.Context(), store.HistoryParams{Session: session, Limit: limit})
	if err != nil {
		exitErr("history", err)
	}

	if jsonOutput() {
		if turns == nil {
			fmt.Println("[]")
			return
		}
		printJSON(turns)
		return
	}
	if len(turns) == 0 {
		fmt.Printf("No messages in session %q\n", session)
		return
	}
	for _, t := range turns {
		fmt.Printf("[%s] %s: %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"), t.Role, t.Content)
	}
}
