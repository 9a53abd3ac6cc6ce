package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// BreakerConfig controls when the provider circuit opens.
type BreakerConfig struct {
	FailureThreshold uint32
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
}

// DefaultBreakerConfig opens after five consecutive upstream failures and
// probes again after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// Breaker guards a provider with a circuit breaker. Only upstream failures
// count against the circuit; cancellations and empty completions do not.
type Breaker struct {
	next    domain.CompletionProvider
	cb      *gobreaker.CircuitBreaker[string]
	metrics observability.Metrics
}

// WithBreaker wraps next in a circuit breaker.
func WithBreaker(next domain.CompletionProvider, cfg BreakerConfig, logger *slog.Logger, metrics observability.Metrics) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	b := &Breaker{next: next, metrics: metrics}
	b.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrUpstreamUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.Gauge(observability.MetricBreakerState, float64(to), observability.T("provider", name))
		},
	})
	metrics.Gauge(observability.MetricBreakerState, float64(gobreaker.StateClosed), observability.T("provider", next.Name()))
	return b
}

func (b *Breaker) Name() string { return b.next.Name() }

// State reports the current circuit state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, prompt)
	})

	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
		err = &domain.UpstreamError{Provider: b.Name(), Err: fmt.Errorf("circuit open: %w", err)}
	case err != nil:
		status = "error"
	}
	b.metrics.Counter(observability.MetricProviderCalls, 1,
		observability.T("provider", b.Name()),
		observability.T("status", status),
	)
	return out, err
}

var _ domain.CompletionProvider = (*Breaker)(nil)
