package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

const (
	invalidMessage  = "Invalid appointment data"
	createFailed    = "Failed to create appointment"
	listFailed      = "Failed to fetch appointments"
	notFoundMessage = "Appointment not found"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the appointment endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/appointments", h.Create)
	r.Get("/appointments", h.List)
	r.Get("/appointments/{id}", h.Get)
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []forms.Violation `json:"details,omitempty"`
}

// Create handles POST /appointments requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload forms.Answers
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn("failed to decode appointment", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   invalidMessage,
			Details: []forms.Violation{{Field: "body", Message: "Request body must be a JSON object"}},
		})
		return
	}

	appt, err := h.svc.Create(r.Context(), payload)
	if err != nil {
		if violations, ok := forms.Violations(err); ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalidMessage, Details: violations})
			return
		}
		h.logger.Error("failed to create appointment", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: createFailed})
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// List handles GET /appointments requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: listFailed})
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// Get handles GET /appointments/{id} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	appt, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, ErrAppointmentNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundMessage})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch appointment", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: listFailed})
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
