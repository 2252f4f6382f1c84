package wizard

import "errors"

var (
	// ErrLastStep is returned when advancing past the final step.
	ErrLastStep = errors.New("wizard: already on the final step")
	// ErrFirstStep is returned when retreating below step 1.
	ErrFirstStep = errors.New("wizard: already on the first step")
	// ErrNotFinalStep is returned when submitting before the final step.
	ErrNotFinalStep = errors.New("wizard: submit is only available on the final step")
	// ErrSubmitInProgress is returned while a submission for the session is pending.
	ErrSubmitInProgress = errors.New("wizard: submission already in progress")
	// ErrConfirmed is returned for any action other than restart after confirmation.
	ErrConfirmed = errors.New("wizard: session already confirmed")
	// ErrNoVerification is returned when requesting a code on a flow without verification.
	ErrNoVerification = errors.New("wizard: flow does not use verification codes")
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("wizard: session not found")
)

// SubmitError is a failed submission with a message fit for the patient.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return "wizard: submit failed: " + e.Err.Error()
	}
	return "wizard: submit failed: " + e.Message
}

func (e *SubmitError) Unwrap() error { return e.Err }
