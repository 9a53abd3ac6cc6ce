package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/pkg/config"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

func TestChatCompletion_Complete(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"service_name\":\"Netflix\"}"}}]}`))
	}))
	defer server.Close()

	client := NewChatCompletion(Groq, "gsk-test", Options{BaseURL: server.URL + "/", Temperature: 0.1})
	out, err := client.Complete(context.Background(), "the prompt")
	require.NoError(t, err)

	assert.Equal(t, `{"service_name":"Netflix"}`, out)
	assert.Equal(t, "Bearer gsk-test", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, GroqModel, gotBody.Model)
	assert.Equal(t, 300, gotBody.MaxTokens)
	assert.InDelta(t, 0.1, gotBody.Temperature, 1e-9)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "the prompt", gotBody.Messages[0].Content)
}

func TestChatCompletion_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	out, err := NewChatCompletion(Groq, "k", Options{BaseURL: server.URL}).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestChatCompletion_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	_, err := NewChatCompletion(Groq, "k", Options{BaseURL: server.URL}).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, "groq", upstream.Provider)
	assert.True(t, strings.HasSuffix(upstream.Body, "...(truncated)"))
}

func TestChatCompletion_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewChatCompletion(Groq, "k", Options{BaseURL: url, Timeout: time.Second}).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestGenerateContent_Complete(t *testing.T) {
	var gotKey, gotPath string
	var gotBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Goog-Api-Key")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"cost\":"},{"text":"9.99}"}]}}]}`))
	}))
	defer server.Close()

	client := NewGenerateContent("AIza-test", Options{BaseURL: server.URL})
	out, err := client.Complete(context.Background(), "the prompt")
	require.NoError(t, err)

	assert.Equal(t, `{"cost":9.99}`, out)
	assert.Equal(t, "AIza-test", gotKey)
	assert.Equal(t, "/models/"+GeminiModel+":generateContent", gotPath)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "the prompt", gotBody.Contents[0].Parts[0].Text)
	assert.Equal(t, 300, gotBody.GenerationConfig.MaxOutputTokens)
}

type countingProvider struct {
	err   error
	calls int
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Complete(context.Context, string) (string, error) {
	c.calls++
	return "", c.err
}

func TestBreaker_OpensOnUpstreamFailures(t *testing.T) {
	inner := &countingProvider{err: &domain.UpstreamError{Provider: "counting", StatusCode: 503}}
	metrics := observability.NewInMemoryMetrics()
	cfg := BreakerConfig{FailureThreshold: 2, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute}
	b := WithBreaker(inner, cfg, nil, metrics)

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, float64(gobreaker.StateOpen), metrics.GetGauge(observability.MetricBreakerState, observability.T("provider", "counting")))

	_, err := b.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 2, inner.calls, "open circuit must not reach the provider")
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricProviderCalls,
		observability.T("provider", "counting"), observability.T("status", "rejected")))
}

func TestBreaker_IgnoresNonUpstreamErrors(t *testing.T) {
	inner := &countingProvider{err: context.Canceled}
	cfg := BreakerConfig{FailureThreshold: 1, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute}
	b := WithBreaker(inner, cfg, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 3, inner.calls)
}

func TestNew(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		p, err := New(&config.Config{ExtractionProvider: "groq"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "groq", p.Name())

		_, err = p.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(&config.Config{ExtractionProvider: "llamafile", ExtractionAPIKey: "k"}, nil, nil)
		assert.Error(t, err)
	})

	tests := []struct {
		provider string
		want     string
	}{
		{"groq", "groq"},
		{"OpenAI", "openai"},
		{"gemini", "gemini"},
		{"", "groq"},
	}
	for _, tt := range tests {
		t.Run("configured "+tt.want, func(t *testing.T) {
			p, err := New(&config.Config{ExtractionProvider: tt.provider, ExtractionAPIKey: "k"}, nil, nil)
			require.NoError(t, err)
			assert.IsType(t, &Breaker{}, p)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}
