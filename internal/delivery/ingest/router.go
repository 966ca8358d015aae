package ingest

import (
	"net/http"

	"mclink/internal/application"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// NewRouter builds the API routes. Health is open; everything else needs
// the bearer key. All routes share one token bucket.
func NewRouter(cfg *Config, codes application.CodeService, logger application.Logger) http.Handler {
	r := mux.NewRouter()
	h := newHandler(codes, logger)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(recovery(logger))
	api.Use(throttle(rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)))

	api.HandleFunc("/health", h.health).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(requireAPIKey(cfg.APIKey))
	protected.HandleFunc("/codes", h.issueCode).Methods(http.MethodPost)
	protected.HandleFunc("/links", h.findLink).Methods(http.MethodGet)

	return r
}
