package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	authcore "github.com/pantrylog/authcore"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

// counterDefs maps engine counters to instrument names. Order is not
// significant; names follow the <subsystem>_<event>_total convention.
var counterDefs = []struct {
	id   authcore.MetricID
	name string
	help string
}{
	{authcore.MetricRegisterSuccess, "authcore_register_success_total", "Successful registrations."},
	{authcore.MetricRegisterConflict, "authcore_register_conflict_total", "Registrations refused for duplicate identity."},
	{authcore.MetricLoginSuccess, "authcore_login_success_total", "Verified logins."},
	{authcore.MetricLoginFailure, "authcore_login_failure_total", "Credential mismatches."},
	{authcore.MetricLoginRateLimited, "authcore_login_rate_limited_total", "Logins refused by the attempt guard."},
	{authcore.MetricRefreshSuccess, "authcore_refresh_success_total", "Completed refresh-token rotations."},
	{authcore.MetricRefreshRejected, "authcore_refresh_rejected_total", "Refresh tokens rejected at the boundary."},
	{authcore.MetricLogout, "authcore_logout_total", "Logout calls, including tolerant no-ops."},
}

type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         authcore.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter registers observable counters over an engine's snapshot.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers the engine's counters on the meter.
func NewExporter(meter metric.Meter, engine *authcore.Engine) (*Exporter, error) {
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource is the injectable variant used by tests and by
// hosts that wrap the engine.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}

	observables := make([]metric.Observable, 0, len(counterDefs)+1)
	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.name, metric.WithDescription(def.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.id, instrument: ins})
		observables = append(observables, ins)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"authcore_audit_dropped_total",
		metric.WithDescription("Audit events dropped to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
