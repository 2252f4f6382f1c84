package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/psychwebmd-intake/internal/drafts"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
)

// State is the lifecycle position of a session.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
)

// Transition names what a successful Advance did.
type Transition string

const (
	TransitionAdvanced Transition = "advanced"
	TransitionCodeSent Transition = "code_sent"
)

// Session is one patient's pass through a flow.
type Session struct {
	engine *Engine
	flow   *flows.Flow
	id     string

	mu       sync.Mutex
	step     int
	codeSent bool
	answers  forms.Answers
	state    State
	errors   []forms.Violation
	receipt  *Receipt
	touched  time.Time

	// revision and syncedAt identify the last draft this session wrote or
	// adopted. persisted is set once a draft for the session has existed.
	revision  int64
	syncedAt  time.Time
	persisted bool
}

// View is a snapshot of a session.
type View struct {
	SessionID       string                `json:"sessionId"`
	FlowKey         string                `json:"flowKey"`
	AppointmentType flows.AppointmentType `json:"appointmentType"`
	FormVariant     flows.Variant         `json:"formVariant"`
	Step            int                   `json:"step"`
	TotalSteps      int                   `json:"totalSteps"`
	StepTitle       string                `json:"stepTitle"`
	StepFields      []string              `json:"stepFields"`
	State           State                 `json:"state"`
	CodeSent        bool                  `json:"codeSent"`
	Answers         forms.Answers         `json:"answers"`
	Errors          []forms.Violation     `json:"errors,omitempty"`
	Receipt         *Receipt              `json:"receipt,omitempty"`
}

func newSession(e *Engine, flow *flows.Flow, id string) *Session {
	return &Session{
		engine:  e,
		flow:    flow,
		id:      id,
		step:    1,
		answers: flow.Defaults(),
		state:   StateEditing,
		touched: time.Now(),
	}
}

func (s *Session) restore(d *drafts.Draft) {
	s.step = d.Step
	if s.step > s.flow.TotalSteps() {
		s.step = s.flow.TotalSteps()
	}
	s.codeSent = d.CodeSent
	s.answers = d.Answers.Normalize()
	s.revision = d.Revision
	s.syncedAt = d.UpdatedAt
	s.persisted = true
}

// ownsDraft reports whether d is the copy this session last synced with.
func (s *Session) ownsDraft(d *drafts.Draft) bool {
	return d.Revision == s.revision && d.UpdatedAt.Equal(s.syncedAt)
}

func (s *Session) refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// refreshLocked reconciles the cached session with the shared draft store,
// which other replicas may have written since this one last looked. A
// missing draft for a session that had one means it was submitted or
// expired elsewhere, and the session is gone.
func (s *Session) refreshLocked(ctx context.Context) error {
	if s.state == StateSubmitting {
		return nil
	}
	d, err := s.engine.drafts.Load(ctx, s.draftKey())
	switch {
	case err == nil:
		if s.ownsDraft(d) {
			return nil
		}
		if s.state == StateEditing && d.Revision < s.revision {
			return nil
		}
		s.restore(d)
		s.state = StateEditing
		s.errors = nil
		s.receipt = nil
		return nil
	case errors.Is(err, drafts.ErrNotFound):
		if s.state == StateConfirmed || !s.persisted {
			return nil
		}
		return ErrSessionNotFound
	case errors.Is(err, drafts.ErrCorrupt):
		s.engine.logger.Warn("rewriting corrupt draft", "flow", s.flow.Key, "session_id", s.id, "error", err)
		if s.state == StateEditing {
			s.saveLocked(ctx)
		}
		return nil
	default:
		return fmt.Errorf("wizard: load draft: %w", err)
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Flow returns the flow definition the session runs.
func (s *Session) Flow() *flows.Flow { return s.flow }

func (s *Session) draftKey() string { return drafts.Key(s.flow.Key, s.id) }

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return time.Now()
	}
	return s.touched
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	step, _ := s.flow.Step(s.step)
	v := View{
		SessionID:       s.id,
		FlowKey:         s.flow.Key,
		AppointmentType: s.flow.Type,
		FormVariant:     s.flow.Variant,
		Step:            s.step,
		TotalSteps:      s.flow.TotalSteps(),
		StepTitle:       step.Title,
		StepFields:      append([]string{}, step.Fields...),
		State:           s.state,
		CodeSent:        s.codeSent,
		Answers:         s.answers.Normalize(),
		Errors:          append([]forms.Violation(nil), s.errors...),
	}
	if s.receipt != nil {
		r := *s.receipt
		v.Receipt = &r
	}
	return v
}

func (s *Session) checkEditableLocked() error {
	switch s.state {
	case StateConfirmed:
		return ErrConfirmed
	case StateSubmitting:
		return ErrSubmitInProgress
	}
	return nil
}

// Set merges answers into the session and saves the draft. A nil value
// removes a field.
func (s *Session) Set(ctx context.Context, answers forms.Answers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	s.answers = s.answers.Merge(answers)
	s.saveLocked(ctx)
	return nil
}

// Advance moves to the next step when the current step's fields validate.
// On flows with verification, the first Advance from step 1 sends the code
// and stays on step 1.
func (s *Session) Advance(ctx context.Context) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	if err := s.checkEditableLocked(); err != nil {
		return "", err
	}
	if s.step >= s.flow.TotalSteps() {
		s.observe("advance", "rejected")
		return "", ErrLastStep
	}

	if violations := s.flow.ValidateStep(s.step, s.answers); len(violations) > 0 {
		s.errors = violations
		s.observe("advance", "invalid")
		return "", forms.AsError(violations)
	}
	s.errors = nil

	if s.step == 1 && s.flow.RequiresCode && !s.codeSent {
		s.sendCodeLocked(ctx)
		s.saveLocked(ctx)
		s.observe("advance", "code_sent")
		return TransitionCodeSent, nil
	}

	s.step++
	s.saveLocked(ctx)
	s.observe("advance", "ok")
	return TransitionAdvanced, nil
}

// Retreat moves to the previous step without validation.
func (s *Session) Retreat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	if s.step <= 1 {
		s.observe("retreat", "rejected")
		return ErrFirstStep
	}
	s.step--
	s.errors = nil
	s.saveLocked(ctx)
	s.observe("retreat", "ok")
	return nil
}

// SendCode sends, or resends, the verification code to the contact on
// step 1. The step does not change.
func (s *Session) SendCode(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	if !s.flow.RequiresCode {
		return ErrNoVerification
	}
	if violations := s.flow.ValidateStep(1, s.answers); len(violations) > 0 {
		s.errors = violations
		s.observe("send_code", "invalid")
		return forms.AsError(violations)
	}
	s.errors = nil
	s.sendCodeLocked(ctx)
	s.saveLocked(ctx)
	s.observe("send_code", "ok")
	return nil
}

func (s *Session) sendCodeLocked(ctx context.Context) {
	method := s.answers.String("verificationMethod")
	contact := s.answers.String("verifiedContact")
	if err := s.engine.codes.SendCode(ctx, method, contact); err != nil {
		s.engine.logger.Error("failed to send verification code", "flow", s.flow.Key, "session_id", s.id, "error", err)
	}
	s.codeSent = true
}

// Submit validates the full answer set and hands it to the submitter. At
// most one submission per session is in flight across every replica sharing
// the guard; a concurrent call gets ErrSubmitInProgress. The draft is
// re-read under the guard, so a session already submitted elsewhere gets
// ErrSessionNotFound. On success the draft is cleared and the session is
// confirmed. On failure nothing but the error changes, so the patient can
// resubmit.
func (s *Session) Submit(ctx context.Context) (*Receipt, error) {
	s.mu.Lock()
	err := s.checkEditableLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	release, err := s.engine.guard.Acquire(ctx, s.draftKey())
	if err != nil {
		if errors.Is(err, ErrSubmitInProgress) || errors.Is(err, drafts.ErrSubmitInProgress) {
			s.observe("submit", "duplicate")
			return nil, ErrSubmitInProgress
		}
		return nil, err
	}
	defer release()

	s.mu.Lock()
	if err := s.refreshLocked(ctx); err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrSessionNotFound) {
			s.observe("submit", "duplicate")
		}
		return nil, err
	}
	if err := s.checkEditableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.step != s.flow.TotalSteps() {
		s.mu.Unlock()
		return nil, ErrNotFinalStep
	}
	if violations := s.flow.Validate(s.answers); len(violations) > 0 {
		s.errors = violations
		s.observe("submit", "invalid")
		s.mu.Unlock()
		return nil, forms.AsError(violations)
	}

	s.state = StateSubmitting
	s.errors = nil
	req := SubmitRequest{SessionID: s.id, Flow: s.flow, Answers: s.answers.Normalize()}
	s.mu.Unlock()

	receipt, err := s.engine.submitter.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
	if err != nil {
		s.state = StateEditing
		s.observe("submit", "failed")
		s.engine.logger.Error("submission failed", "flow", s.flow.Key, "session_id", s.id, "error", err)
		if violations, ok := forms.Violations(err); ok {
			s.errors = violations
		}
		return nil, s.submitError(err)
	}

	s.state = StateConfirmed
	s.receipt = receipt
	if clearErr := s.engine.drafts.Clear(ctx, s.draftKey()); clearErr != nil {
		s.engine.logger.Error("failed to clear draft after submission", "flow", s.flow.Key, "session_id", s.id, "error", clearErr)
	}
	s.observe("submit", "ok")
	s.engine.logger.Info("flow submitted", "flow", s.flow.Key, "session_id", s.id, "record_id", receipt.ID)
	return receipt, nil
}

func (s *Session) submitError(err error) *SubmitError {
	var se *SubmitError
	if errors.As(err, &se) && se.Message != "" {
		return se
	}
	return &SubmitError{Message: s.engine.failureMessage, Err: err}
}

// Restart returns the session to step 1 with default answers and replaces
// its draft with a fresh one. It is the only action allowed after
// confirmation.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A vanished draft is fine here; the restart writes a new one.
	if err := s.refreshLocked(ctx); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	if s.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	s.step = 1
	s.codeSent = false
	s.answers = s.flow.Defaults()
	s.state = StateEditing
	s.errors = nil
	s.receipt = nil
	s.saveLocked(ctx)
	s.observe("restart", "ok")
	return nil
}

// saveLocked mirrors the session into the draft store under the next
// revision. A failed save is logged and the session carries on; the
// in-memory state stays current.
func (s *Session) saveLocked(ctx context.Context) {
	s.touched = time.Now()
	s.revision++
	d := &drafts.Draft{
		FlowKey:   s.flow.Key,
		Step:      s.step,
		CodeSent:  s.codeSent,
		Answers:   s.answers,
		Revision:  s.revision,
		UpdatedAt: s.touched.UTC(),
	}
	if err := s.engine.drafts.Save(ctx, s.draftKey(), d); err != nil {
		s.engine.logger.Error("failed to save draft", "flow", s.flow.Key, "session_id", s.id, "error", err)
		return
	}
	s.syncedAt = d.UpdatedAt
	s.persisted = true
}

func (s *Session) observe(action, outcome string) {
	s.engine.observer.ObserveTransition(s.flow.Key, action, outcome)
}
