package core

import (
	"context"
	"testing"
	"time"
)

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	ended []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

func TestServiceInstrumentsOperations(t *testing.T) {
	reg := loadFixtureRegistry(t)
	metrics := &captureMetricsRecorder{}
	audit := &captureAuditRecorder{}
	tracer := &captureTracer{}
	svc := NewService(reg,
		WithMetricsRecorder(metrics),
		WithAuditRecorder(audit),
		WithTracer(tracer),
	)
	ctx := context.Background()

	result, err := svc.CheckCompliance(ctx, "nmos_core", 0.1, map[string]float64{"vhigh_ds_on": 1.5})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Compliant {
		t.Fatalf("expected compliant result")
	}
	if !metrics.has("check_compliance", true) {
		t.Fatalf("missing success metric: %+v", metrics.calls)
	}

	if _, err := svc.CheckCompliance(ctx, "missing", 0.1, nil); err == nil {
		t.Fatalf("expected not-found error")
	}
	if !metrics.has("check_compliance", false) {
		t.Fatalf("missing error metric: %+v", metrics.calls)
	}

	if _, err := svc.ValidateTransient(ctx, "nmos_core", ProfileSet{}); err != nil {
		t.Fatalf("transient: %v", err)
	}
	if !metrics.has("validate_transient", true) {
		t.Fatalf("missing transient metric")
	}

	if _, err := svc.GenerateValidationReport(ctx, "nmos_core", nil); err != nil {
		t.Fatalf("report: %v", err)
	}

	var successes, errors int
	for _, entry := range audit.entries {
		switch entry.Status {
		case AuditSuccess:
			successes++
		case AuditError:
			errors++
		}
		if entry.Time.IsZero() {
			t.Fatalf("audit entry without timestamp: %+v", entry)
		}
	}
	if successes != 3 || errors != 1 {
		t.Fatalf("audit entries = %d success / %d error", successes, errors)
	}
	if len(tracer.ended) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(tracer.ended))
	}
}

func TestServiceWithoutHooksPassesThrough(t *testing.T) {
	reg := loadFixtureRegistry(t)
	svc := NewService(reg)
	if svc.Registry() != reg {
		t.Fatalf("registry accessor broken")
	}
	if err := svc.LoadDocument(context.Background(), reg.ExportDocument()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestServiceNowFuncDrivesAudit(t *testing.T) {
	reg := loadFixtureRegistry(t)
	audit := &captureAuditRecorder{}
	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(reg,
		WithAuditRecorder(audit),
		WithNowFunc(func() time.Time { return fixed }),
	)
	if _, err := svc.CheckCompliance(context.Background(), "nmos_core", 0.1, nil); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(audit.entries) != 1 || !audit.entries[0].Time.Equal(fixed) {
		t.Fatalf("audit time = %+v", audit.entries)
	}
}
