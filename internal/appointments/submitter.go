package appointments

import (
	"context"
	"errors"

	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
)

// Submitter hands completed wizard sessions to the service in-process.
type Submitter struct {
	svc *Service
}

// NewSubmitter wraps svc as a wizard.Submitter.
func NewSubmitter(svc *Service) *Submitter {
	return &Submitter{svc: svc}
}

// Submit stamps the flow's type and variant onto the answers and creates the
// appointment.
func (s *Submitter) Submit(ctx context.Context, req wizard.SubmitRequest) (*wizard.Receipt, error) {
	payload := req.Answers.Merge(forms.Answers{
		"appointmentType": string(req.Flow.Type),
		"formVariant":     string(req.Flow.Variant),
	})
	appt, err := s.svc.Create(ctx, payload)
	if err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			return nil, &wizard.SubmitError{Message: invalidMessage, Err: err}
		}
		return nil, err
	}
	return &wizard.Receipt{ID: appt.ID, CreatedAt: appt.CreatedAt}, nil
}
