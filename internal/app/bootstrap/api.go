package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/psychwebmd-intake/internal/api/router"
	"github.com/wolfman30/psychwebmd-intake/internal/appointments"
	appconfig "github.com/wolfman30/psychwebmd-intake/internal/config"
	"github.com/wolfman30/psychwebmd-intake/internal/contact"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/internal/http/handlers"
	"github.com/wolfman30/psychwebmd-intake/internal/observability/metrics"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// API is the fully wired HTTP service.
type API struct {
	Handler http.Handler
	Engine  *wizard.Engine
	close   []func()
}

// Close releases storage and draft backend connections.
func (a *API) Close() {
	for i := len(a.close) - 1; i >= 0; i-- {
		a.close[i]()
	}
}

// APIOptions carries the process-level dependencies BuildAPI cannot derive
// from config alone.
type APIOptions struct {
	// Registerer receives the service metrics. Nil uses the default registry.
	Registerer prometheus.Registerer
	// Gatherer serves /metrics. Nil uses the default gatherer.
	Gatherer prometheus.Gatherer
	// DynamoClient is required when DRAFT_BACKEND=dynamodb.
	DynamoClient *dynamodb.Client
}

// BuildAPI wires storage, the wizard engine and the router from config.
func BuildAPI(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts APIOptions) (*API, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	storage, err := BuildStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	api := &API{close: []func(){storage.Close}}

	draftBackend, err := BuildDraftStore(ctx, cfg, opts.DynamoClient, logger)
	if err != nil {
		api.Close()
		return nil, err
	}
	api.close = append(api.close, draftBackend.Close)

	m := metrics.NewIntakeMetrics(opts.Registerer)
	registry := flows.Default()

	apptSvc := appointments.NewService(storage.Appointments, registry, m, logger)
	contactSvc := contact.NewService(storage.Contact, m, logger)

	engine, err := wizard.New(wizard.Config{
		Flows:          registry,
		Drafts:         draftBackend.Store,
		Submitter:      appointments.NewSubmitter(apptSvc),
		Guard:          draftBackend.Guard,
		Observer:       m,
		Logger:         logger,
		FailureMessage: FailureMessage(cfg.ClinicPhone),
	})
	if err != nil {
		api.Close()
		return nil, err
	}
	api.Engine = engine

	api.Handler = router.New(&router.Config{
		Logger:              logger,
		BasePath:            cfg.APIBasePath,
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		ContactHandler:      contact.NewHandler(contactSvc, logger),
		WizardHandler:       handlers.NewWizardHandler(engine, logger),
		MetricsHandler:      promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}),
		RequestObserver:     m,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		TrustProxyHeaders:   cfg.TrustProxyHeaders,
		Health:              storage.Health,
	})
	return api, nil
}

// FailureMessage is the patient-facing text shown when a submission fails
// without a more specific reason.
func FailureMessage(phone string) string {
	if phone == "" || phone == appconfig.DefaultClinicPhone {
		return wizard.DefaultFailureMessage
	}
	return fmt.Sprintf("Please try again or call us at %s.", phone)
}
