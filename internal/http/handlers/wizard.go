package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// WizardHandler exposes wizard sessions over HTTP so any client drives the
// same state machine.
type WizardHandler struct {
	engine *wizard.Engine
	logger *logging.Logger
}

// NewWizardHandler creates a handler over engine.
func NewWizardHandler(engine *wizard.Engine, logger *logging.Logger) *WizardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WizardHandler{engine: engine, logger: logger}
}

// Routes mounts the flow and session endpoints on r.
func (h *WizardHandler) Routes(r chi.Router) {
	r.Get("/flows", h.ListFlows)
	r.Get("/flows/{flowKey}", h.GetFlow)
	r.Post("/flows/{flowKey}/sessions", h.OpenSession)
	r.Route("/flows/{flowKey}/sessions/{sessionId}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Patch("/answers", h.SetAnswers)
		r.Post("/advance", h.Advance)
		r.Post("/retreat", h.Retreat)
		r.Post("/code", h.SendCode)
		r.Post("/submit", h.Submit)
		r.Post("/restart", h.Restart)
	})
}

// FlowSummary is one entry of GET /flows.
type FlowSummary struct {
	Key             string                `json:"key"`
	Title           string                `json:"title"`
	AppointmentType flows.AppointmentType `json:"appointmentType"`
	FormVariant     flows.Variant         `json:"formVariant"`
	RequiresCode    bool                  `json:"requiresCode"`
	TotalSteps      int                   `json:"totalSteps"`
}

// FlowDetail is the response of GET /flows/{flowKey}.
type FlowDetail struct {
	*flows.Flow
	Fields   []forms.Field `json:"fields"`
	Defaults forms.Answers `json:"defaults"`
}

// SessionResponse is the body of every session endpoint.
type SessionResponse struct {
	wizard.View
	Transition wizard.Transition `json:"transition,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type openSessionRequest struct {
	SessionID string        `json:"sessionId"`
	Answers   forms.Answers `json:"answers"`
}

// ListFlows handles GET /flows
func (h *WizardHandler) ListFlows(w http.ResponseWriter, r *http.Request) {
	all := h.engine.Flows().All()
	out := make([]FlowSummary, 0, len(all))
	for _, f := range all {
		out = append(out, FlowSummary{
			Key:             f.Key,
			Title:           f.Title,
			AppointmentType: f.Type,
			FormVariant:     f.Variant,
			RequiresCode:    f.RequiresCode,
			TotalSteps:      f.TotalSteps(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetFlow handles GET /flows/{flowKey}
func (h *WizardHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := h.engine.Flows().Lookup(chi.URLParam(r, "flowKey"))
	if err != nil {
		jsonError(w, "Flow not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, FlowDetail{Flow: flow, Fields: flow.Schema().Fields(), Defaults: flow.Defaults()})
}

// OpenSession handles POST /flows/{flowKey}/sessions. A body naming an
// existing sessionId resumes that session's draft.
func (h *WizardHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	s, err := h.engine.Open(r.Context(), chi.URLParam(r, "flowKey"), req.SessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(req.Answers) > 0 {
		if err := s.Set(r.Context(), req.Answers); err != nil {
			h.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, SessionResponse{View: s.View()})
}

// GetSession handles GET /flows/{flowKey}/sessions/{sessionId}
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{View: s.View()})
}

// SetAnswers handles PATCH .../answers
func (h *WizardHandler) SetAnswers(w http.ResponseWriter, r *http.Request) {
	var answers forms.Answers
	if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Set(r.Context(), answers); err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{View: s.View()})
}

// Advance handles POST .../advance
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	transition, err := s.Advance(r.Context())
	if err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{View: s.View(), Transition: transition})
}

// Retreat handles POST .../retreat
func (h *WizardHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, (*wizard.Session).Retreat)
}

// SendCode handles POST .../code
func (h *WizardHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, (*wizard.Session).SendCode)
}

// Restart handles POST .../restart
func (h *WizardHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, (*wizard.Session).Restart)
}

// Submit handles POST .../submit
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := s.Submit(r.Context()); err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{View: s.View()})
}

func (h *WizardHandler) simple(w http.ResponseWriter, r *http.Request, action func(*wizard.Session, context.Context) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := action(s, r.Context()); err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{View: s.View()})
}

func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	s, err := h.engine.Get(r.Context(), chi.URLParam(r, "flowKey"), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return s, true
}

// writeSessionError reports err alongside the session's current view.
func (h *WizardHandler) writeSessionError(w http.ResponseWriter, s *wizard.Session, err error) {
	status, msg := h.classify(err)
	writeJSON(w, status, SessionResponse{View: s.View(), Error: msg})
}

func (h *WizardHandler) writeError(w http.ResponseWriter, err error) {
	status, msg := h.classify(err)
	jsonError(w, msg, status)
}

func (h *WizardHandler) classify(err error) (int, string) {
	var submitErr *wizard.SubmitError
	switch {
	case errors.Is(err, flows.ErrUnknownFlow):
		return http.StatusNotFound, "Flow not found"
	case errors.Is(err, wizard.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, wizard.ErrSubmitInProgress):
		return http.StatusConflict, "Submission already in progress"
	case errors.Is(err, wizard.ErrConfirmed):
		return http.StatusConflict, "This request has already been submitted"
	case errors.Is(err, wizard.ErrLastStep), errors.Is(err, wizard.ErrFirstStep),
		errors.Is(err, wizard.ErrNotFinalStep), errors.Is(err, wizard.ErrNoVerification):
		return http.StatusConflict, err.Error()
	case errors.As(err, &submitErr):
		return http.StatusBadGateway, submitErr.Message
	}
	if _, ok := forms.Violations(err); ok {
		return http.StatusUnprocessableEntity, "Please correct the highlighted fields"
	}
	h.logger.Error("wizard request failed", "error", err)
	return http.StatusInternalServerError, "Something went wrong"
}
