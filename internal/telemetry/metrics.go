// Package telemetry holds the OpenTelemetry instruments recorded by the HTTP
// layer and the blacklist maintenance loop.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles the counters recorded per request. A nil *Metrics is a
// no-op so callers never need to guard for disabled telemetry.
type Metrics struct {
	authAuthenticated metric.Int64Counter
	authAnonymous     metric.Int64Counter
	blacklistPurged   metric.Int64Counter
}

// NewMetrics creates the request counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	authenticated, err := meter.Int64Counter("finsplore.auth.authenticated",
		metric.WithDescription("Requests that established an authenticated identity"))
	if err != nil {
		return nil, err
	}
	anonymous, err := meter.Int64Counter("finsplore.auth.anonymous",
		metric.WithDescription("Requests that carried no usable credential (absent, expired, malformed, or revoked)"))
	if err != nil {
		return nil, err
	}
	purged, err := meter.Int64Counter("finsplore.blacklist.purged",
		metric.WithDescription("Expired blacklist entries removed by purge sweeps"))
	if err != nil {
		return nil, err
	}
	return &Metrics{authAuthenticated: authenticated, authAnonymous: anonymous, blacklistPurged: purged}, nil
}

// RequestAuthenticated records a request that passed the gatekeeper with an identity.
func (m *Metrics) RequestAuthenticated(ctx context.Context) {
	if m == nil {
		return
	}
	m.authAuthenticated.Add(ctx, 1)
}

// RequestAnonymous records a request that proceeded without an identity.
func (m *Metrics) RequestAnonymous(ctx context.Context) {
	if m == nil {
		return
	}
	m.authAnonymous.Add(ctx, 1)
}

// TokensPurged records the entries removed by one purge sweep.
func (m *Metrics) TokensPurged(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.blacklistPurged.Add(ctx, n)
}
