package api

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ev-route-service/internal/api/handlers"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"ev-route-service/internal/ports"
	"ev-route-service/internal/services"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Planner     handlers.TripPlanner
	Policy      services.PlanPolicy
	Stations    ports.StationDirectory
	Presets     []domain.VehiclePreset
	Logger      zerolog.Logger
	Metrics     *obs.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	withRequest := requestMiddleware(d.Logger, d.Metrics)

	r := mux.NewRouter()
	// mux only runs Use middleware on matched routes.
	r.NotFoundHandler = withRequest(http.HandlerFunc(handlers.NotFound))
	r.MethodNotAllowedHandler = withRequest(http.HandlerFunc(handlers.MethodNotAllowed))
	r.Use(withRequest)

	planHandler := &handlers.PlanHandler{Planner: d.Planner, Policy: d.Policy}
	stationHandler := &handlers.StationHandler{Directory: d.Stations}
	presetHandler := &handlers.PresetHandler{Presets: d.Presets}

	// The web client calls the /api-prefixed paths; both are served.
	for _, prefix := range []string{"", "/api"} {
		r.HandleFunc(prefix+"/health", handlers.Health).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/route/plan", planHandler.Plan).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/stations/near", stationHandler.Near).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/ev/presets", presetHandler.List).Methods(http.MethodGet)
	}

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(origins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
		gorillahandlers.ExposedHeaders([]string{"X-Request-ID", handlers.PlanIDHeader}),
	)
	recovery := gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(recoveryLogger{log: d.Logger}),
		gorillahandlers.PrintRecoveryStack(true),
	)

	return recovery(cors(r))
}
