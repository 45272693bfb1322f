package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation log of a session",
		Run:   runClear,
	}

	cmd.Flags().StringP("session", "s", "", "Conversation session (default from config)")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
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

	n, err := s.Clear(cmd.Context(), session)
	if err != nil {
		exitErr("clear", err)
	}

	if jsonOutput() {
		printJSON(map[string]any{"session": session, "deleted": n})
		return
	}
	fmt.Printf("Cleared %d messages from session %q\n", n, session)
}
