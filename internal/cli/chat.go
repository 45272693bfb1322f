package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/calassist/internal/completion"
	"github.com/rcliao/calassist/internal/config"
	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send a message to the assistant",
		Long:  "Send a message to the assistant. The message can be a positional arg or piped via stdin.",
		Run:   runChat,
	}

	cmd.Flags().StringP("session", "s", "", "Conversation session (default from config)")

	RootCmd.AddCommand(cmd)
}

type chatOutput struct {
	Session string `json:"session"`
	Reply   string `json:"reply"`
}

func runChat(cmd *cobra.Command, args []string) {
	message := readMessage(args)
	if strings.TrimSpace(message) == "" {
		exitErr("chat", fmt.Errorf("message is required (positional arg or stdin)"))
	}

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

	ctx := cmd.Context()
	conv, err := s.Conversation(ctx, session)
	if err != nil {
		exitErr("load conversation", err)
	}

	client := newCompletionClient(cfg)
	next, reply, chatErr := client.Converse(ctx, conv, strings.TrimSpace(message))

	// The user turn is kept even when the request failed.
	if err := persistNew(ctx, s, session, conv, next); err != nil {
		exitErr("save conversation", err)
	}
	if chatErr != nil {
		exitErr("chat", chatErr)
	}

	if jsonOutput() {
		printJSON(chatOutput{Session: session, Reply: reply})
		return
	}
	fmt.Println(reply)
}

func newCompletionClient(cfg *config.Config) *completion.Client {
	return completion.New(completion.Options{
		Endpoint:    cfg.Endpoint,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}, completion.WithLogger(log.Default()))
}

// persistNew appends the turns next holds beyond prev.
func persistNew(ctx context.Context, s store.Store, session string, prev, next model.Conversation) error {
	turns := next.Turns()
	for _, t := range turns[prev.Len():] {
		if _, err := s.AppendTurn(ctx, store.AppendParams{
			Session: session,
			Role:    t.Role,
			Content: t.Content,
		}); err != nil {
			return err
		}
	}
	return nil
}

func readMessage(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

func sessionFlag(cmd *cobra.Command, cfg *config.Config) string {
	if v, _ := cmd.Flags().GetString("session"); v != "" {
		return v
	}
	return cfg.Session
}
