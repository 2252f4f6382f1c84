package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/psychwebmd-intake/internal/appointments"
	"github.com/wolfman30/psychwebmd-intake/internal/contact"
	"github.com/wolfman30/psychwebmd-intake/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/psychwebmd-intake/internal/http/middleware"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	BasePath            string
	AppointmentsHandler *appointments.Handler
	ContactHandler      *contact.Handler
	WizardHandler       *handlers.WizardHandler
	MetricsHandler      http.Handler
	RequestObserver     httpmiddleware.RequestObserver
	CORSAllowedOrigins  []string
	RateLimitRPS        float64
	RateLimitBurst      int
	TrustProxyHeaders   bool

	// Health reports dependency status for /health. Nil means always healthy.
	Health func(r *http.Request) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.RequestObserver))

	r.Get("/health", healthHandler(cfg.Health))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	api := chi.NewRouter()
	api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	api.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "PsychWebMD API is running!"})
	})
	api.Get("/health", healthHandler(cfg.Health))
	if cfg.AppointmentsHandler != nil {
		cfg.AppointmentsHandler.Routes(api)
	}
	if cfg.ContactHandler != nil {
		cfg.ContactHandler.Routes(api)
	}
	if cfg.WizardHandler != nil {
		cfg.WizardHandler.Routes(api)
	}
	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})

	if cfg.BasePath == "" {
		r.Mount("/", api)
	} else {
		r.Mount(cfg.BasePath, api)
	}
	return r
}

func healthHandler(check func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
