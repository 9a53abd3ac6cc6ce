package provider

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
)

const (
	// GroqBaseURL is the OpenAI-compatible endpoint used by default.
	GroqBaseURL = "https://api.groq.com/openai/v1"
	// GroqModel is the default Groq model.
	GroqModel = "llama-3.1-8b-instant"
	// OpenAIBaseURL is the OpenAI endpoint.
	OpenAIBaseURL = "https://api.openai.com/v1"
	// OpenAIModel is the default OpenAI model.
	OpenAIModel = "gpt-4o-mini"
)

// ChatCompletion talks to any OpenAI-compatible chat completions API.
type ChatCompletion struct {
	name   string
	opts   Options
	client *http.Client
}

// NewChatCompletion creates a client for an OpenAI-compatible API. Empty
// options fall back to the Groq endpoint and model.
func NewChatCompletion(name, apiKey string, opts Options) *ChatCompletion {
	if name == "" {
		name = "groq"
	}
	opts = opts.withDefaults(GroqModel, GroqBaseURL)
	return &ChatCompletion{
		name:   name,
		opts:   opts,
		client: bearerClient(apiKey, opts.Timeout),
	}
}

func (c *ChatCompletion) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt as a single user message. A response without
// choices yields an empty completion.
func (c *ChatCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       c.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	var resp chatResponse
	if err := postJSON(ctx, c.client, c.name, c.opts.BaseURL+"/chat/completions", nil, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

var _ domain.CompletionProvider = (*ChatCompletion)(nil)
