package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestIntakeMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIntakeMetrics(reg)

	m.ObserveAppointmentCreated("new", "standard")
	m.ObserveAppointmentCreated("new", "standard")
	m.ObserveAppointmentCreated("intake", "quick")
	m.ObserveContactCreated()
	m.ObserveValidationFailure("appointment")
	m.ObserveTransition("new-patient-flow", "advance", "ok")

	if got := testutil.ToFloat64(m.appointmentsCreated.WithLabelValues("new", "standard")); got != 2 {
		t.Fatalf("expected 2 new/standard appointments, got %v", got)
	}
	if got := testutil.ToFloat64(m.contactsCreated); got != 1 {
		t.Fatalf("expected 1 contact, got %v", got)
	}
	if got := testutil.ToFloat64(m.wizardTransitions.WithLabelValues("new-patient-flow", "advance", "ok")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
}

func TestIntakeMetricsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIntakeMetrics(reg)
	m.ObserveRequest("POST", "/api/appointments", "201", 0.05)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "psychwebmd_http_request_duration_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	if hist == nil {
		t.Fatalf("request histogram not registered")
	}
	if hist.GetSampleCount() != 1 {
		t.Fatalf("expected one sample, got %d", hist.GetSampleCount())
	}
}

func TestIntakeMetricsNilSafe(t *testing.T) {
	var m *IntakeMetrics
	m.ObserveAppointmentCreated("new", "standard")
	m.ObserveContactCreated()
	m.ObserveValidationFailure("contact")
	m.ObserveTransition("flow", "advance", "ok")
	m.ObserveRequest("GET", "/", "200", 0.1)
}
