package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskhub/taskhub/internal/auth"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/tasks"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Tokens      *auth.TokenIssuer
	AuthHandler *auth.Handler
	TaskHandler *tasks.Handler
	Metrics     *observability.Metrics
}

// NewRouter constructs the chi.Router with TaskHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(AuthRateLimit())
			params.AuthHandler.MountRoutes(r)
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Use(auth.RequireAuth(params.Tokens, params.Logger))
			params.TaskHandler.MountRoutes(r)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
