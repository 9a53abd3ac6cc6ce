package observability

import (
	"log/slog"
	"time"
)

// Timer tracks the duration of an operation and reports it on Stop.
type Timer struct {
	operation string
	start     time.Time
	now       func() time.Time
	logger    *slog.Logger
	metrics   Metrics
	metric    string
	tags      []Tag
}

// StartTimer creates a new timer for the given operation.
func StartTimer(operation string) *Timer {
	return &Timer{
		operation: operation,
		start:     time.Now(),
		now:       time.Now,
		metric:    MetricOperationDuration,
	}
}

// WithLogger logs completion on stop.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics records the duration into metrics on stop.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithMetricName overrides the timing metric name.
func (t *Timer) WithMetricName(name string) *Timer {
	t.metric = name
	return t
}

// WithTags adds tags to the timer for metrics labeling.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records the operation duration.
func (t *Timer) Stop() time.Duration {
	return t.StopWithError(nil)
}

// StopWithError records the operation duration with error status.
func (t *Timer) StopWithError(err error) time.Duration {
	duration := t.now().Sub(t.start)

	if t.logger != nil {
		if err != nil {
			t.logger.Warn("operation failed",
				OperationKey, t.operation,
				DurationKey, duration.Milliseconds(),
				ErrorKey, err.Error(),
			)
		} else {
			t.logger.Debug("operation completed",
				OperationKey, t.operation,
				DurationKey, duration.Milliseconds(),
			)
		}
	}

	if t.metrics != nil {
		tags := append(append([]Tag{}, t.tags...), T(OperationKey, t.operation))
		t.metrics.Timing(t.metric, duration, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, T(OperationKey, t.operation))
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, T(OperationKey, t.operation))
		}
	}

	return duration
}

// Elapsed returns the elapsed time without stopping the timer.
func (t *Timer) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// TimeOperationResult times fn and records its outcome.
func TimeOperationResult[R any](logger *slog.Logger, metrics Metrics, operation string, fn func() (R, error)) (R, error) {
	timer := StartTimer(operation).WithLogger(logger).WithMetrics(metrics)
	result, err := fn()
	timer.StopWithError(err)
	return result, err
}
