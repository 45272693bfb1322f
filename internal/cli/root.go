// Package cli implements the calassist CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/calassist/internal/config"
	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "calassist",
	Short: "Calendar-aware chat assistant",
	Long:  "Chat with an LLM about your calendar. Conversations and calendar snapshots are kept in SQLite.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetVerbose(verbose)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $CALASSIST_DB or ~/.calassist/calassist.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config path (default: $CALASSIST_CONFIG or ~/.calassist/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func homeFile(name string) string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".calassist", name)
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("CALASSIST_DB"); env != "" {
		return env
	}
	return homeFile("calassist.db")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("CALASSIST_CONFIG"); env != "" {
		return env
	}
	return homeFile("config.yaml")
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

// loadConfig reads the config file and overlays environment secrets.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func jsonOutput() bool {
	return formatFlag == "json"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
