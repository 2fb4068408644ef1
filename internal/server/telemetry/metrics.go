// Package telemetry records authentication metrics through OpenTelemetry.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope used by the server
const MeterName = "github.com/iudanet/storefront"

// Login outcomes
const (
	OutcomeSuccess          = "success"
	OutcomeInvalid          = "invalid_credentials"
	OutcomeNotVerified      = "email_not_verified"
	OutcomeRateLimited      = "rate_limited"
	OutcomeInternalError    = "error"
	outcomeAttributeKey     = "outcome"
	rateLimitScopeAttribute = "scope"
)

// Metrics holds the auth instruments. A nil *Metrics records nothing.
type Metrics struct {
	logins        metric.Int64Counter
	registrations metric.Int64Counter
	rateLimited   metric.Int64Counter
	sessionsSwept metric.Int64Counter
}

// NewMetrics creates the instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	logins, err := meter.Int64Counter("storefront.auth.logins",
		metric.WithDescription("Number of login attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	registrations, err := meter.Int64Counter("storefront.auth.registrations",
		metric.WithDescription("Number of accounts created"),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter("storefront.auth.rate_limited",
		metric.WithDescription("Number of requests rejected by the rate limiter"),
	)
	if err != nil {
		return nil, err
	}

	swept, err := meter.Int64Counter("storefront.sessions.swept",
		metric.WithDescription("Number of expired sessions deleted"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		logins:        logins,
		registrations: registrations,
		rateLimited:   rateLimited,
		sessionsSwept: swept,
	}, nil
}

// NewGlobalMetrics creates Metrics on the global meter provider
func NewGlobalMetrics() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider().Meter(MeterName))
}

// Login records a login attempt outcome
func (m *Metrics) Login(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String(outcomeAttributeKey, outcome)))
}

// Registration records a created account
func (m *Metrics) Registration(ctx context.Context) {
	if m == nil {
		return
	}
	m.registrations.Add(ctx, 1)
}

// RateLimited records a rejected request for scope (login, password_reset, ...)
func (m *Metrics) RateLimited(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String(rateLimitScopeAttribute, scope)))
}

// SessionsSwept records deleted expired sessions
func (m *Metrics) SessionsSwept(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.sessionsSwept.Add(ctx, int64(count))
}
