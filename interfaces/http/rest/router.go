package rest

import (
	"context"
	"net/http"
	"time"

	"filegraph/interfaces/http/rest/handlers"
	"filegraph/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessChecker reports whether a backing dependency can serve requests.
type ReadinessChecker interface {
	VerifyConnectivity(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	persons    *handlers.PersonHandler
	files      *handlers.FileHandler
	readiness  ReadinessChecker
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	persons *handlers.PersonHandler,
	files *handlers.FileHandler,
	readiness ReadinessChecker,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		persons:    persons,
		files:      files,
		readiness:  readiness,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/persons", func(r chi.Router) {
			r.Post("/", rt.persons.CreatePerson)
			r.Get("/", rt.persons.ListPersons)
			r.Get("/{name}", rt.persons.GetPerson)
			r.Get("/{name}/files", rt.persons.ListFiles)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/", rt.files.List)
			r.Get("/{id}", rt.files.GetByID)
			r.Post("/upload", rt.files.Upload)
			r.Post("/upload/batch", rt.files.UploadBatch)

			r.Route("/{person}/{filename}", func(r chi.Router) {
				r.Get("/download", rt.files.Download)
				r.Put("/", rt.files.Edit)
				r.Delete("/", rt.files.Delete)
				r.Get("/history", rt.files.History)
				r.Get("/batch-related", rt.files.BatchRelated)
			})
		})

		r.Get("/stats", rt.files.Stats)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if rt.readiness != nil {
		if err := rt.readiness.VerifyConnectivity(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
