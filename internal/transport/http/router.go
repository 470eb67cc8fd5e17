// Package httptransport assembles the HTTP surface: shared middleware, health
// and metrics endpoints, and every module's handler.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"seal/internal/platform/metrics"
	"seal/pkg/platform/httputil"
	adminmw "seal/pkg/platform/middleware/admin"
	authmw "seal/pkg/platform/middleware/auth"
	request "seal/pkg/platform/middleware/request"
	"seal/pkg/platform/middleware/requesttime"
)

// Registrar is a module handler that mounts its routes.
type Registrar interface {
	Register(r chi.Router)
}

// AdminRegistrar mounts operational routes behind the admin token.
type AdminRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Config struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	AdminTokenHash string
}

type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Tokens    authmw.JWTValidator
	Health    []HealthCheck
	Modules   []Registrar
	Admin     []AdminRegistrar
	ScrapeAPI http.Handler
}

func NewRouter(cfg Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
			ExposedHeaders: []string{request.HeaderRequestID},
			MaxAge:         300,
		}))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.ScrapeAPI != nil {
		r.Method(http.MethodGet, "/metrics", deps.ScrapeAPI)
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(deps.Tokens, deps.Logger))
		for _, m := range deps.Modules {
			m.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(cfg.AdminTokenHash, deps.Logger))
		for _, m := range deps.Admin {
			m.RegisterAdmin(r)
		}
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				resp.Checks[c.Name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
