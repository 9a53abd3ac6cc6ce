package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

var validate = validator.New()

// Pipeline turns raw email text into a validated ParsedSubscription with a
// single provider call. Runs share no mutable state.
type Pipeline struct {
	provider   domain.CompletionProvider
	normalizer *DateNormalizer
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewPipeline creates a pipeline. Nil logger and metrics are replaced with
// discarding implementations.
func NewPipeline(provider domain.CompletionProvider, normalizer *DateNormalizer, logger *slog.Logger, metrics observability.Metrics) *Pipeline {
	if normalizer == nil {
		normalizer = NewDateNormalizer(nil, nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Pipeline{
		provider:   provider,
		normalizer: normalizer,
		logger:     logger,
		metrics:    metrics,
	}
}

// completionPayload keeps each field raw so types can be checked exactly.
type completionPayload struct {
	ServiceName     json.RawMessage `json:"service_name"`
	Cost            json.RawMessage `json:"cost"`
	Currency        json.RawMessage `json:"currency"`
	RenewalDate     json.RawMessage `json:"renewal_date"`
	CancellationURL json.RawMessage `json:"cancellation_url"`
	WebsiteURL      json.RawMessage `json:"website_url"`
}

// Run executes one extraction. Every error is a *domain.StageError wrapping
// one of the domain sentinel errors.
func (p *Pipeline) Run(ctx context.Context, emailText string) (*domain.ParsedSubscription, error) {
	providerName := "none"
	if p.provider != nil {
		providerName = p.provider.Name()
	}
	logger := observability.LogOperation(p.logger, "extract_subscription", "provider", providerName)
	timer := observability.StartTimer("extract_subscription").
		WithMetrics(p.metrics).
		WithMetricName(observability.MetricExtractionDuration).
		WithTags(observability.T("provider", providerName))

	result, stage, err := p.run(ctx, logger, emailText)
	timer.StopWithError(err)

	if err != nil {
		reason := domain.Reason(err)
		p.metrics.Counter(observability.MetricExtractionRuns, 1, observability.T("outcome", reason))
		logger.WarnContext(ctx, "extraction failed", "stage", stage, "reason", reason, "error", err)
		return nil, &domain.StageError{Stage: stage, Err: err}
	}

	p.metrics.Counter(observability.MetricExtractionRuns, 1, observability.T("outcome", "done"))
	logger.InfoContext(ctx, "extraction completed",
		"service_name", result.ServiceName,
		"currency", result.Currency,
		"renewal_date", result.RenewalDate,
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, emailText string) (*domain.ParsedSubscription, domain.Stage, error) {
	// Received
	if strings.TrimSpace(emailText) == "" {
		return nil, domain.StageReceived, domain.ErrEmptyInput
	}
	if p.provider == nil {
		return nil, domain.StageReceived, domain.ErrConfigurationMissing
	}

	// Prompted
	prompt := BuildPrompt(emailText, p.normalizer.Now())
	logger.DebugContext(ctx, "calling provider", "email_length", len(emailText))

	// RawResponse
	raw, err := p.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, domain.StagePrompted, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, domain.StageRawResponse, domain.ErrEmptyCompletion
	}
	logger.DebugContext(ctx, "provider responded", "completion", observability.Truncate(raw, 512))

	// Sanitized
	cleaned := Sanitize(raw)

	// Decoded
	payload, err := decodePayload(cleaned)
	if err != nil {
		return nil, domain.StageSanitized, err
	}

	// Validated
	parsed, rawDate, err := validatePayload(payload)
	if err != nil {
		return nil, domain.StageDecoded, err
	}

	// Normalized
	parsed.RenewalDate, err = p.normalizer.Normalize(rawDate)
	if err != nil {
		return nil, domain.StageValidated, err
	}

	// Done
	if err := validate.Struct(parsed); err != nil {
		return nil, domain.StageNormalized, fmt.Errorf("%w: %v", domain.ErrIncompleteExtraction, err)
	}
	return parsed, domain.StageDone, nil
}

func decodePayload(text string) (*completionPayload, error) {
	data := []byte(text)
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, fmt.Errorf("%w: %q", domain.ErrMalformedPayload, observability.Truncate(text, 64))
	}

	var payload completionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return &payload, nil
}

// validatePayload checks the required fields and applies the optional-field
// defaults. It returns the raw renewal date text for normalization.
func validatePayload(payload *completionPayload) (*domain.ParsedSubscription, string, error) {
	serviceName, ok := rawString(payload.ServiceName)
	if !ok || serviceName == "" {
		return nil, "", fmt.Errorf("%w: service_name missing", domain.ErrIncompleteExtraction)
	}

	cost, ok := rawNumber(payload.Cost)
	if !ok {
		return nil, "", fmt.Errorf("%w: cost is not a number", domain.ErrIncompleteExtraction)
	}
	if cost <= 0 || math.IsInf(cost, 0) || math.IsNaN(cost) {
		return nil, "", fmt.Errorf("%w: cost must be positive", domain.ErrIncompleteExtraction)
	}

	renewal, ok := rawString(payload.RenewalDate)
	if !ok || renewal == "" {
		return nil, "", fmt.Errorf("%w: renewal_date missing", domain.ErrIncompleteExtraction)
	}

	return &domain.ParsedSubscription{
		ServiceName:     serviceName,
		Cost:            cost,
		Currency:        normalizeCurrency(payload.Currency),
		CancellationURL: optionalURL(payload.CancellationURL),
		WebsiteURL:      optionalURL(payload.WebsiteURL),
	}, renewal, nil
}

func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// rawNumber accepts only JSON numbers, not numeric strings.
func rawNumber(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return 0, false
	}
	return f, true
}

func normalizeCurrency(raw json.RawMessage) string {
	code, ok := rawString(raw)
	if !ok {
		return domain.DefaultCurrency
	}
	code = strings.ToUpper(code)
	if validate.Var(code, "iso4217") != nil {
		return domain.DefaultCurrency
	}
	return code
}

func optionalURL(raw json.RawMessage) *string {
	u, ok := rawString(raw)
	if !ok || u == "" || validate.Var(u, "http_url") != nil {
		return nil
	}
	return &u
}
