package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// Handler handles HTTP requests for contact submissions
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new contact handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the contact endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/contact", h.Create)
	r.Get("/contact", h.List)
	r.Get("/contact/{id}", h.Get)
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []forms.Violation `json:"details,omitempty"`
}

// Create handles POST /contact requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode contact submission", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid contact data",
			Details: []forms.Violation{{Field: "body", Message: "Request body must be a JSON object"}},
		})
		return
	}

	sub, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		if violations, ok := forms.Violations(err); ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid contact data", Details: violations})
			return
		}
		h.logger.Error("failed to create contact submission", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create contact submission"})
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// List handles GET /contact requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list contact submissions", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch contact submissions"})
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// Get handles GET /contact/{id} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, ErrContactNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Contact submission not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch contact submission", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch contact submissions"})
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
