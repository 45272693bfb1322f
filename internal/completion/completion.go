// Package completion talks to an OpenAI-compatible chat-completion endpoint.
package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/model"
	"github.com/rcliao/calassist/internal/remote"
	"github.com/rcliao/calassist/internal/retry"
)

// FallbackReply is returned when the provider answers without any content.
const FallbackReply = "I didn't get a response. Please try again."

const (
	DefaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel       = "deepseek-ai/deepseek-r1"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
	DefaultTitle       = "AI Calendar Assistant"
)

// Options holds the request parameters of a Client.
type Options struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Referer     string
	Title       string
}

// Client builds chat-completion requests from a conversation and runs them
// through the retry policy.
type Client struct {
	opts   Options
	doer   remote.Doer
	policy retry.Policy
	logger *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithDoer replaces the HTTP transport.
func WithDoer(d remote.Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithPolicy replaces the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client. Zero-valued options fall back to the defaults.
func New(opts Options, options ...Option) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = 0
	}
	if opts.Temperature > 2 {
		opts.Temperature = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = remote.DefaultTimeout
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}

	c := &Client{
		opts:   opts,
		doer:   remote.NewHTTPTransport(nil),
		policy: retry.Default(),
		logger: log.Default(),
	}
	for _, o := range options {
		o(c)
	}
	if c.policy.Logger == nil {
		c.policy.Logger = c.logger
	}
	return c
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// BuildRequest returns the request body for message given the prior turns:
// the last ContextWindow turns of history followed by the new user message.
func (c *Client) BuildRequest(history []model.Turn, message string) model.CompletionRequest {
	window := model.LastTurns(history, model.ContextWindow)
	msgs := make([]model.Message, 0, len(window)+1)
	for _, t := range window {
		msgs = append(msgs, model.Message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, model.Message{Role: model.RoleUser, Content: message})

	return model.CompletionRequest{
		Model:       c.opts.Model,
		Messages:    msgs,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}
}

// Complete sends message with the recent history and returns the reply text.
// history is not modified.
func (c *Client) Complete(ctx context.Context, history []model.Turn, message string) (string, error) {
	if c.opts.APIKey == "" {
		return "", remote.NotConfigured("completion API key is not configured")
	}

	body, err := json.Marshal(c.BuildRequest(history, message))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	callID := uuid.NewString()
	logger := c.logger.With("call_id", callID, "model", c.opts.Model)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.opts.APIKey)
	header.Set("Content-Type", "application/json")
	header.Set("X-Title", c.opts.Title)
	if c.opts.Referer != "" {
		header.Set("HTTP-Referer", c.opts.Referer)
	}

	req := remote.Request{
		Method:  http.MethodPost,
		URL:     c.opts.Endpoint,
		Header:  header,
		Body:    body,
		Timeout: c.opts.Timeout,
	}

	start := time.Now()
	reply, err := retry.Do(ctx, c.policy, func(ctx context.Context, attempt int) (string, error) {
		logger.Debug("completion attempt", "attempt", attempt, "endpoint", log.RedactURL(c.opts.Endpoint))
		resp, err := c.doer.Do(ctx, req)
		if err != nil {
			return "", err
		}
		if !resp.OK() {
			return "", statusError(resp)
		}
		return c.extractReply(resp, logger), nil
	})
	if err != nil {
		logger.Error("completion failed", err, "elapsed", time.Since(start).String())
		return "", err
	}

	logger.Info("completion done", "elapsed", time.Since(start).String(), "chars", len(reply))
	return reply, nil
}

// Converse runs Complete against the conversation and returns the
// conversation extended with the new turns. On failure the returned value
// still carries the user turn. conv itself is never modified.
func (c *Client) Converse(ctx context.Context, conv model.Conversation, message string) (model.Conversation, string, error) {
	userTurn := model.Turn{Role: model.RoleUser, Content: message, CreatedAt: time.Now().UTC()}

	reply, err := c.Complete(ctx, conv.Window(model.ContextWindow), message)
	if err != nil {
		return conv.Append(userTurn), "", err
	}

	botTurn := model.Turn{Role: model.RoleAssistant, Content: reply, CreatedAt: time.Now().UTC()}
	return conv.Append(userTurn, botTurn), reply, nil
}

func (c *Client) extractReply(resp *remote.Response, logger *log.Logger) string {
	var out chatResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		logger.Warn("completion body not parsable, using fallback", "err", err.Error())
		return FallbackReply
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		logger.Warn("completion returned no content, using fallback")
		return FallbackReply
	}
	return out.Choices[0].Message.Content
}

// statusError prefers the provider's own error message over a generic one.
func statusError(resp *remote.Response) error {
	var e errorResponse
	if err := json.Unmarshal(resp.Body, &e); err == nil && e.Error.Message != "" {
		return remote.HTTPStatus(resp.Status, e.Error.Message)
	}
	return remote.HTTPStatus(resp.Status, fmt.Sprintf("API request failed with status %d", resp.Status))
}
