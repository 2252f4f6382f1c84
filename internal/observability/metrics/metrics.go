package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for booking and contact traffic.
type IntakeMetrics struct {
	appointmentsCreated *prometheus.CounterVec
	contactsCreated     prometheus.Counter
	validationFailures  *prometheus.CounterVec
	wizardTransitions   *prometheus.CounterVec
	requestLatency      *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		appointmentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psychwebmd",
			Subsystem: "intake",
			Name:      "appointments_created_total",
			Help:      "Appointment records stored",
		}, []string{"appointment_type", "form_variant"}),
		contactsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psychwebmd",
			Subsystem: "intake",
			Name:      "contact_submissions_created_total",
			Help:      "Contact submissions stored",
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psychwebmd",
			Subsystem: "intake",
			Name:      "validation_failures_total",
			Help:      "Create requests rejected by server-side validation",
		}, []string{"resource"}),
		wizardTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psychwebmd",
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard actions by flow and outcome",
		}, []string{"flow", "action", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "psychwebmd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsCreated, m.contactsCreated, m.validationFailures, m.wizardTransitions, m.requestLatency)
	return m
}

func (m *IntakeMetrics) ObserveAppointmentCreated(appointmentType, formVariant string) {
	if m == nil {
		return
	}
	m.appointmentsCreated.WithLabelValues(appointmentType, formVariant).Inc()
}

func (m *IntakeMetrics) ObserveContactCreated() {
	if m == nil {
		return
	}
	m.contactsCreated.Inc()
}

func (m *IntakeMetrics) ObserveValidationFailure(resource string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(resource).Inc()
}

// ObserveTransition satisfies wizard.Observer.
func (m *IntakeMetrics) ObserveTransition(flowKey, action, outcome string) {
	if m == nil {
		return
	}
	m.wizardTransitions.WithLabelValues(flowKey, action, outcome).Inc()
}

func (m *IntakeMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route, status).Observe(seconds)
}
