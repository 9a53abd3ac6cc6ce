package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
)

const (
	// GeminiBaseURL is the Generative Language API endpoint.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// GeminiModel is the default Gemini model.
	GeminiModel = "gemini-1.5-flash"
)

// GenerateContent talks to the Gemini generateContent API, which
// authenticates with an API key header instead of a bearer token.
type GenerateContent struct {
	apiKey string
	opts   Options
	client *http.Client
}

// NewGenerateContent creates a Gemini client.
func NewGenerateContent(apiKey string, opts Options) *GenerateContent {
	opts = opts.withDefaults(GeminiModel, GeminiBaseURL)
	return &GenerateContent{
		apiKey: apiKey,
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

func (g *GenerateContent) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete concatenates the text parts of the first candidate.
func (g *GenerateContent) Complete(ctx context.Context, prompt string) (string, error) {
	var req geminiRequest
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	req.GenerationConfig.Temperature = g.opts.Temperature
	req.GenerationConfig.MaxOutputTokens = g.opts.MaxTokens

	endpoint := g.opts.BaseURL + "/models/" + url.PathEscape(g.opts.Model) + ":generateContent"
	header := http.Header{"X-Goog-Api-Key": []string{g.apiKey}}

	var resp geminiResponse
	if err := postJSON(ctx, g.client, g.Name(), endpoint, header, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

var _ domain.CompletionProvider = (*GenerateContent)(nil)
