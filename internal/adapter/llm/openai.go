package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIChat generates text with an OpenAI-compatible chat completions API.
type OpenAIChat struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// Options configures an OpenAIChat.
type Options struct {
	APIKeyEnv string
	Model     string
	BaseURL   string
	Timeout   time.Duration
}

func NewOpenAIChat(opts Options) (*OpenAIChat, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}
	return newChat(apiKey, opts), nil
}

func NewOllamaChat(opts Options) (*OpenAIChat, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434/v1"
	}
	return newChat("ollama", opts), nil
}

func newChat(apiKey string, opts Options) *OpenAIChat {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIChat{
		client:  openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		timeout: timeout,
	}
}

func (c *OpenAIChat) Generate(prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIChat) ModelName() string {
	return c.model
}
