package appointments

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// Recorder observes stored appointments and rejected payloads.
type Recorder interface {
	ObserveAppointmentCreated(appointmentType, formVariant string)
	ObserveValidationFailure(resource string)
}

// Service validates payloads against the schema of the flow that produced
// them and stores the result.
type Service struct {
	repo     Repository
	flows    *flows.Registry
	recorder Recorder
	logger   *logging.Logger
}

// NewService wires a service. recorder may be nil.
func NewService(repo Repository, registry *flows.Registry, recorder Recorder, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if registry == nil {
		registry = flows.Default()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, flows: registry, recorder: recorder, logger: logger}
}

// Create re-validates payload against the full schema for its
// (appointmentType, formVariant) and persists it. Validation failures are
// returned as *forms.ValidationError.
func (s *Service) Create(ctx context.Context, payload forms.Answers) (*Appointment, error) {
	payload = payload.Normalize()
	flow, err := s.flowFor(payload)
	if err != nil {
		s.observeInvalid()
		return nil, err
	}
	if violations := flow.Validate(payload); len(violations) > 0 {
		s.observeInvalid()
		return nil, forms.AsError(violations)
	}

	appt, err := decodeAppointment(flow, payload)
	if err != nil {
		s.observeInvalid()
		return nil, err
	}
	appt.AppointmentType = flow.Type
	appt.FormVariant = flow.Variant

	created, err := s.repo.Create(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	if s.recorder != nil {
		s.recorder.ObserveAppointmentCreated(string(created.AppointmentType), string(created.FormVariant))
	}
	s.logger.Info("appointment created", "id", created.ID, "type", created.AppointmentType, "variant", created.FormVariant)
	return created, nil
}

// List returns every appointment, newest first.
func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	return s.repo.List(ctx)
}

// Get returns one appointment or ErrAppointmentNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) flowFor(payload forms.Answers) (*flows.Flow, error) {
	typ := flows.AppointmentType(payload.String("appointmentType"))
	if !typ.Valid() {
		return nil, forms.AsError([]forms.Violation{{Field: "appointmentType", Message: "Appointment type must be new, existing or intake"}})
	}
	variant := flows.Variant(payload.String("formVariant"))
	flow, err := s.flows.ForRecord(typ, variant)
	if err != nil {
		return nil, forms.AsError([]forms.Violation{{Field: "formVariant", Message: "Form variant must be standard or quick"}})
	}
	return flow, nil
}

func (s *Service) observeInvalid() {
	if s.recorder != nil {
		s.recorder.ObserveValidationFailure("appointment")
	}
}

// decodeAppointment copies the flow's schema fields into a record. Anything
// else in the payload, the one-time code included, is dropped.
func decodeAppointment(flow *flows.Flow, payload forms.Answers) (*Appointment, error) {
	var appt Appointment
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &appt,
	})
	if err != nil {
		return nil, err
	}
	input := make(map[string]any, len(payload))
	schema := flow.Schema()
	for k, v := range payload {
		switch k {
		case "id", "createdAt", "appointmentType", "formVariant", "otpCode":
			continue
		}
		if _, ok := schema.Field(k); ok {
			input[k] = v
		}
	}
	if err := dec.Decode(input); err != nil {
		return nil, forms.AsError([]forms.Violation{{Field: "payload", Message: err.Error()}})
	}
	return &appt, nil
}
