package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SessionMetrics defines the interface for recording session operation metrics.
// Implementations track issuance and verification counts plus verification
// latencies for observability.
type SessionMetrics interface {
	// RecordIssuance records an issued session.
	// Status examples: "success", "error"
	RecordIssuance(ctx context.Context, status string)

	// RecordVerification records a token verification attempt with its outcome.
	// Outcome examples: "success", "token_expired", "token_malformed",
	// "signature_invalid", "unknown_subject", "store_unavailable",
	// "lookup_timeout"
	RecordVerification(ctx context.Context, outcome string)

	// RecordVerificationDuration records the full resolution latency including
	// the identity lookup. Duration is recorded in seconds as a histogram.
	RecordVerificationDuration(ctx context.Context, duration time.Duration, outcome string)
}

// sessionMetrics implements SessionMetrics using OpenTelemetry metrics.
type sessionMetrics struct {
	issuanceCounter     metric.Int64Counter
	verificationCounter metric.Int64Counter
	durationHisto       metric.Float64Histogram
}

// NewSessionMetrics creates a new SessionMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names (e.g., "sessions").
// Returns error if meters cannot be initialized.
func NewSessionMetrics(meterProvider metric.MeterProvider, namespace string) (SessionMetrics, error) {
	meter := meterProvider.Meter(namespace)

	issuanceCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_issued_total", namespace),
		metric.WithDescription("Total number of issued sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create issuance counter: %w", err)
	}

	verificationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_verifications_total", namespace),
		metric.WithDescription("Total number of session verification attempts"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_verification_duration_seconds", namespace),
		metric.WithDescription("Duration of session verifications in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &sessionMetrics{
		issuanceCounter:     issuanceCounter,
		verificationCounter: verificationCounter,
		durationHisto:       durationHisto,
	}, nil
}

// RecordIssuance increments the issuance counter with a status label.
func (s *sessionMetrics) RecordIssuance(ctx context.Context, status string) {
	s.issuanceCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordVerification increments the verification counter with an outcome label.
func (s *sessionMetrics) RecordVerification(ctx context.Context, outcome string) {
	s.verificationCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordVerificationDuration records the verification duration in seconds with an outcome label.
func (s *sessionMetrics) RecordVerificationDuration(
	ctx context.Context,
	duration time.Duration,
	outcome string,
) {
	s.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// NoOpSessionMetrics is a no-op implementation of SessionMetrics for when metrics are disabled.
type NoOpSessionMetrics struct{}

// NewNoOpSessionMetrics creates a no-op SessionMetrics implementation.
func NewNoOpSessionMetrics() SessionMetrics {
	return &NoOpSessionMetrics{}
}

// RecordIssuance does nothing when metrics are disabled.
func (n *NoOpSessionMetrics) RecordIssuance(ctx context.Context, status string) {
	// No-op
}

// RecordVerification does nothing when metrics are disabled.
func (n *NoOpSessionMetrics) RecordVerification(ctx context.Context, outcome string) {
	// No-op
}

// RecordVerificationDuration does nothing when metrics are disabled.
func (n *NoOpSessionMetrics) RecordVerificationDuration(
	ctx context.Context,
	duration time.Duration,
	outcome string,
) {
	// No-op
}
