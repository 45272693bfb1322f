package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search conversation turns by keyword",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("session", "s", "", "Filter by session")
	cmd.Flags().String("role", "", "Filter by role: user or assistant")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	role, _ := cmd.Flags().GetString("role")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Session: session,
		Query:   query,
		Role:    model.Role(role),
		Limit:   limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if jsonOutput() {
		if len(results) == 0 {
			fmt.Println("[]")
			return
		}
		printJSON(results)
		return
	}
	for _, r := range results {
		fmt.Printf("%s [%s] %s: %s\n", r.Session, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Role, r.Content)
	}
}
