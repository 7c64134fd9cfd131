// Package llm talks to an OpenAI-compatible chat completions endpoint
// (Ollama's /v1 by default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrEmptyResponse is returned when the model sends no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	ToolsModel string
	Timeout    time.Duration
	HTTPClient *http.Client
	MaxRetries int
}

// Client sends single-turn chat completions.
type Client struct {
	api        openai.Client
	chatModel  string
	toolsModel string
	logger     *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ChatModel) == "" {
		return nil, errors.New("llm: chat model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ToolsModel == "" {
		cfg.ToolsModel = cfg.ChatModel
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		// The SDK refuses an empty key; Ollama ignores it.
		apiKey = "ollama"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed+"/"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:        openai.NewClient(opts...),
		chatModel:  cfg.ChatModel,
		toolsModel: cfg.ToolsModel,
		logger:     logger.With("component", "llm"),
	}, nil
}

// Generate runs the chat model. It satisfies summarize.Generator.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	return c.Complete(ctx, c.chatModel, system, prompt)
}

// GenerateStrict runs the tools model.
func (c *Client) GenerateStrict(ctx context.Context, system, prompt string) (string, error) {
	return c.Complete(ctx, c.toolsModel, system, prompt)
}

// Complete sends one system + user message pair to model and returns the
// raw assistant content, reasoning included.
func (c *Client) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion (%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("completion finished",
		"model", model,
		"duration", time.Since(start),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return content, nil
}
