package core

import (
	"context"
	"time"
)

// AuditStatus classifies an audited operation outcome.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditError   AuditStatus = "error"
)

// AuditEntry describes one completed service operation for audit trails.
type AuditEntry struct {
	Operation string
	Status    AuditStatus
	Device    string
	Detail    string
	Time      time.Time
}

// AuditRecorder receives audit entries. Implementations must be safe for
// concurrent use.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes for aggregation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a span opened by a Tracer.
type TraceSpan interface {
	End(err error)
}

// Service wraps a Registry with optional audit, metrics, and trace hooks.
// Hooks observe; they never alter results. The zero set of options yields a
// plain pass-through.
type Service struct {
	registry *Registry
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAuditRecorder attaches an audit recorder.
func WithAuditRecorder(rec AuditRecorder) ServiceOption {
	return func(s *Service) { s.audit = rec }
}

// WithMetricsRecorder attaches a metrics recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = rec }
}

// WithTracer attaches a tracer.
func WithTracer(tr Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tr }
}

// WithNowFunc overrides the clock used for audit timestamps.
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService wraps the registry. The registry is constructed and passed in
// explicitly; there is no process-wide instance.
func NewService(registry *Registry, opts ...ServiceOption) *Service {
	s := &Service{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the wrapped registry.
func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) instrument(ctx context.Context, operation, device string, fn func() error) error {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	started := s.now()
	err := fn()
	elapsed := s.now().Sub(started)

	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, elapsed)
	}
	if s.audit != nil {
		entry := AuditEntry{Operation: operation, Status: AuditSuccess, Device: device, Time: s.now().UTC()}
		if err != nil {
			entry.Status = AuditError
			entry.Detail = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
	return err
}

// LoadDocument loads a canonical document into the registry.
func (s *Service) LoadDocument(ctx context.Context, doc Document) error {
	return s.instrument(ctx, "load_document", "", func() error {
		return s.registry.LoadDocument(doc)
	})
}

// CheckCompliance runs a single static compliance query.
func (s *Service) CheckCompliance(ctx context.Context, device string, tmaxfrac float64, observations map[string]float64) (CheckResult, error) {
	var result CheckResult
	err := s.instrument(ctx, "check_compliance", device, func() error {
		var err error
		result, err = s.registry.CheckCompliance(device, tmaxfrac, observations)
		return err
	})
	return result, err
}

// GenerateValidationReport runs an ordered scenario sequence.
func (s *Service) GenerateValidationReport(ctx context.Context, device string, scenarios []Scenario) (Report, error) {
	var report Report
	err := s.instrument(ctx, "validation_report", device, func() error {
		var err error
		report, err = s.registry.GenerateValidationReport(device, scenarios)
		return err
	})
	return report, err
}

// ValidateTransient validates a transient profile set.
func (s *Service) ValidateTransient(ctx context.Context, device string, profiles ProfileSet) (TransientReport, error) {
	var report TransientReport
	err := s.instrument(ctx, "validate_transient", device, func() error {
		var err error
		report, err = s.registry.ValidateTransient(device, profiles)
		return err
	})
	return report, err
}
