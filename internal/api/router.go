package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/mipractice/mipractice/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Persona lifecycle
	CreatePersona http.HandlerFunc
	UpdatePersona http.HandlerFunc

	// Conversation
	CreateThread http.HandlerFunc
	SendMessage  http.HandlerFunc
	GetHistory   http.HandlerFunc

	// MI adherence analysis
	AnalyzeMessage http.HandlerFunc
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string

	// ReadyChecks maps dependency names to health probes for /health/ready.
	ReadyChecks map[string]func() error
}

func NewRouter(cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks the cache backend and remote service config
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{"status": "healthy"}
		status := http.StatusOK

		for name, check := range cfg.ReadyChecks {
			if err := check(); err != nil {
				health[name] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				health[name] = "healthy"
			}
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/personas", func(r chi.Router) {
			r.Post("/", h.CreatePersona)
			r.Post("/update", h.UpdatePersona)
		})

		r.Route("/threads", func(r chi.Router) {
			r.Post("/", h.CreateThread)
			r.Get("/{threadID}/messages", h.GetHistory)
		})

		r.Post("/messages", h.SendMessage)
		r.Post("/analysis", h.AnalyzeMessage)
	})

	return r
}
