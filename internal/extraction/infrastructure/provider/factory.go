package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/pkg/config"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// Supported provider names.
const (
	Groq   = "groq"
	OpenAI = "openai"
	Gemini = "gemini"
)

// New builds the configured provider wrapped in a circuit breaker. A
// missing credential still yields a provider, one that fails every call
// with domain.ErrConfigurationMissing, so the service can start.
func New(cfg *config.Config, logger *slog.Logger, metrics observability.Metrics) (domain.CompletionProvider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.ExtractionProvider))
	if name == "" {
		name = Groq
	}

	opts := Options{
		Model:       cfg.ExtractionModel,
		BaseURL:     cfg.ExtractionBaseURL,
		Timeout:     cfg.ExtractionTimeout,
		MaxTokens:   cfg.ExtractionMaxTokens,
		Temperature: cfg.ExtractionTemperature,
	}

	var p domain.CompletionProvider
	if !cfg.HasExtractionCredential() {
		switch name {
		case Groq, OpenAI, Gemini:
		default:
			return nil, fmt.Errorf("unknown extraction provider %q", name)
		}
		if logger != nil {
			logger.Warn("extraction provider has no credential",
				"provider", name,
				"checked", strings.Join(config.ProviderKeyPrecedence(name), ","),
			)
		}
		return unconfigured{name: name}, nil
	}

	switch name {
	case Groq:
		p = NewChatCompletion(Groq, cfg.ExtractionAPIKey, opts)
	case OpenAI:
		if opts.BaseURL == "" {
			opts.BaseURL = OpenAIBaseURL
		}
		if opts.Model == "" {
			opts.Model = OpenAIModel
		}
		p = NewChatCompletion(OpenAI, cfg.ExtractionAPIKey, opts)
	case Gemini:
		p = NewGenerateContent(cfg.ExtractionAPIKey, opts)
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", name)
	}

	if logger != nil {
		logger.Info("extraction provider configured",
			"provider", name,
			"key_source", cfg.ExtractionKeySource,
		)
	}
	return WithBreaker(p, DefaultBreakerConfig(), logger, metrics), nil
}

type unconfigured struct {
	name string
}

func (u unconfigured) Name() string { return u.name }

func (u unconfigured) Complete(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: no API key for %s", domain.ErrConfigurationMissing, u.name)
}
