package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

type stubProvider struct {
	completion string
	err        error
	calls      int
	prompts    []string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.completion, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestPipeline(provider domain.CompletionProvider, now time.Time, metrics observability.Metrics) *Pipeline {
	normalizer := NewDateNormalizer(func() time.Time { return now }, time.UTC)
	return NewPipeline(provider, normalizer, testLogger(), metrics)
}

func TestPipeline_EndToEnd(t *testing.T) {
	provider := &stubProvider{completion: "```json\n" + `{"service_name":"Netflix","cost":15.99,"currency":"USD","renewal_date":"2025-01-15","cancellation_url":"https://netflix.com/cancelplan","website_url":"https://netflix.com"}` + "\n```"}
	metrics := observability.NewInMemoryMetrics()
	p := newTestPipeline(provider, time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC), metrics)

	got, err := p.Run(context.Background(), "Your Netflix membership renews on January 15. Total: $15.99")
	require.NoError(t, err)

	assert.Equal(t, "Netflix", got.ServiceName)
	assert.InDelta(t, 15.99, got.Cost, 1e-9)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "2025-01-15", got.RenewalDate)
	require.NotNil(t, got.CancellationURL)
	assert.Equal(t, "https://netflix.com/cancelplan", *got.CancellationURL)
	require.NotNil(t, got.WebsiteURL)
	assert.Equal(t, "https://netflix.com", *got.WebsiteURL)

	assert.Equal(t, 1, provider.calls)
	assert.Contains(t, provider.prompts[0], "Your Netflix membership renews on January 15.")
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricExtractionRuns, observability.T("outcome", "done")))
}

func TestPipeline_Defaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("missing currency and urls", func(t *testing.T) {
		p := newTestPipeline(&stubProvider{completion: `{"service_name":"Spotify","cost":9.99,"renewal_date":"Jul 3"}`}, now, nil)

		got, err := p.Run(context.Background(), "spotify receipt")
		require.NoError(t, err)
		assert.Equal(t, "USD", got.Currency)
		assert.Equal(t, "2025-07-03", got.RenewalDate)
		assert.Nil(t, got.CancellationURL)
		assert.Nil(t, got.WebsiteURL)
	})

	t.Run("currency is upper-cased", func(t *testing.T) {
		p := newTestPipeline(&stubProvider{completion: `{"service_name":"Spotify","cost":9.99,"currency":"eur","renewal_date":"2025-07-03"}`}, now, nil)

		got, err := p.Run(context.Background(), "spotify receipt")
		require.NoError(t, err)
		assert.Equal(t, "EUR", got.Currency)
	})

	t.Run("unknown currency falls back", func(t *testing.T) {
		p := newTestPipeline(&stubProvider{completion: `{"service_name":"Spotify","cost":9.99,"currency":"dollars","renewal_date":"2025-07-03"}`}, now, nil)

		got, err := p.Run(context.Background(), "spotify receipt")
		require.NoError(t, err)
		assert.Equal(t, "USD", got.Currency)
	})

	t.Run("relative or empty urls are dropped", func(t *testing.T) {
		p := newTestPipeline(&stubProvider{completion: `{"service_name":"Figma","cost":12,"renewal_date":"2025-07-03","cancellation_url":"figma.com/settings","website_url":""}`}, now, nil)

		got, err := p.Run(context.Background(), "figma receipt")
		require.NoError(t, err)
		assert.Nil(t, got.CancellationURL)
		assert.Nil(t, got.WebsiteURL)
	})
}

func TestPipeline_Failures(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		email     string
		provider  *stubProvider
		wantErr   error
		wantStage domain.Stage
		wantCalls int
	}{
		{
			name:      "blank email makes no call",
			email:     "   \n\t",
			provider:  &stubProvider{completion: "{}"},
			wantErr:   domain.ErrEmptyInput,
			wantStage: domain.StageReceived,
			wantCalls: 0,
		},
		{
			name:      "upstream failure",
			email:     "receipt",
			provider:  &stubProvider{err: &domain.UpstreamError{Provider: "stub", StatusCode: 503}},
			wantErr:   domain.ErrUpstreamUnavailable,
			wantStage: domain.StagePrompted,
			wantCalls: 1,
		},
		{
			name:      "empty completion",
			email:     "receipt",
			provider:  &stubProvider{completion: "  \n"},
			wantErr:   domain.ErrEmptyCompletion,
			wantStage: domain.StageRawResponse,
			wantCalls: 1,
		},
		{
			name:      "prose instead of JSON",
			email:     "receipt",
			provider:  &stubProvider{completion: "I could not find a subscription."},
			wantErr:   domain.ErrMalformedPayload,
			wantStage: domain.StageSanitized,
			wantCalls: 1,
		},
		{
			name:      "JSON array",
			email:     "receipt",
			provider:  &stubProvider{completion: `[{"service_name":"Netflix"}]`},
			wantErr:   domain.ErrMalformedPayload,
			wantStage: domain.StageSanitized,
			wantCalls: 1,
		},
		{
			name:      "truncated JSON",
			email:     "receipt",
			provider:  &stubProvider{completion: `{"service_name":"Netflix","cost":15.9`},
			wantErr:   domain.ErrMalformedPayload,
			wantStage: domain.StageSanitized,
			wantCalls: 1,
		},
		{
			name:      "missing cost",
			email:     "receipt",
			provider:  &stubProvider{completion: `{"service_name":"Netflix","renewal_date":"2025-07-01"}`},
			wantErr:   domain.ErrIncompleteExtraction,
			wantStage: domain.StageDecoded,
			wantCalls: 1,
		},
		{
			name:      "cost as string",
			email:     "receipt",
			provider:  &stubProvider{completion: `{"service_name":"Netflix","cost":"15.99","renewal_date":"2025-07-01"}`},
			wantErr:   domain.ErrIncompleteExtraction,
			wantStage: domain.StageDecoded,
			wantCalls: 1,
		},
		{
			name:      "zero cost",
			email:     "receipt",
			provider:  &stubProvider{completion: `{"service_name":"Netflix","cost":0,"renewal_date":"2025-07-01"}`},
			wantErr:   domain.ErrIncompleteExtraction,
			wantStage: domain.StageDecoded,
			wantCalls: 1,
		},
		{
			name:      "blank service name",
			email:     "receipt",
			provider:  &stubProvider{completion: `{"service_name":"  ","cost":3,"renewal_date":"2025-07-01"}`},
			wantErr:   domain.ErrIncompleteExtraction,
			wantStage: domain.StageDecoded,
			wantCalls: 1,
		},
		{
			name:      "missing renewal date",
			email:     "receipt",
			provider:  &stubProvider{completion: `{"service_name":"Netflix","cost":3}`},
			wantErr:   domain.ErrIncompleteExtraction,
			wantStage: domain.StageDecoded,
			wantCalls: 1,
		},
		{
			name:      "unparseable renewal date",
			email:     "receipt",
			provider:  &stubProvider{completion: `{"service_name":"Netflix","cost":3,"renewal_date":"whenever you like"}`},
			wantErr:   domain.ErrDateUnparseable,
			wantStage: domain.StageValidated,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewInMemoryMetrics()
			p := newTestPipeline(tt.provider, now, metrics)

			got, err := p.Run(context.Background(), tt.email)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)

			var stageErr *domain.StageError
			require.True(t, errors.As(err, &stageErr))
			assert.Equal(t, tt.wantStage, stageErr.Stage)
			assert.Equal(t, tt.wantCalls, tt.provider.calls)
			assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricExtractionRuns,
				observability.T("outcome", domain.Reason(tt.wantErr))))
		})
	}
}

func TestPipeline_NoProvider(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil)

	_, err := p.Run(context.Background(), "receipt")
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)

	_, err = p.Run(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyInput, "empty input is reported before configuration")
}
