package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrEmptyCompletion = errors.New("empty completion")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	Temperature float64
	MaxTokens   int
}

// Completer generates a reply for an ordered list of messages.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// OpenAICompatible talks to any OpenAI-style chat completions endpoint,
// Groq by default.
type OpenAICompatible struct {
	client *openai.Client
	model  string
}

func NewOpenAICompatible(apiKey, baseURL, model string) *OpenAICompatible {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompatible{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAICompatible) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}
	// temperature is omitempty; zero would fall back to the provider default.
	if opts.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

type retrying struct {
	next       Completer
	maxRetries int
	logger     *slog.Logger
}

// WithRetry retries a failed completion up to maxRetries times. Context
// cancellation is never retried.
func WithRetry(next Completer, maxRetries int, logger *slog.Logger) Completer {
	if maxRetries <= 0 {
		return next
	}
	return &retrying{next: next, maxRetries: maxRetries, logger: logger}
}

func (r *retrying) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		out, err := r.next.Complete(ctx, messages, opts)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < r.maxRetries {
			r.logger.Warn("completion failed, retrying", "attempt", attempt+1, "error", err)
		}
	}
	return "", lastErr
}
