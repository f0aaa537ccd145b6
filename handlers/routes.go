package handlers

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"panellicense/logger"
	"panellicense/metrics"
	"panellicense/middleware"
	"panellicense/utils"
)

// RouterDeps everything the router wires together. RateLimiter, ClientIPs and Metrics are optional.
type RouterDeps struct {
	Licenses     *LicenseHandler
	Health       *HealthHandler
	TokenManager *utils.TokenManager
	RateLimiter  middleware.RateLimiter
	ClientIPs    *middleware.ClientIPResolver
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// NewRouter builds the HTTP surface of the server.
func NewRouter(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	if deps.Logger == nil {
		deps.Logger = logger.Slog()
	}

	base := []func(http.HandlerFunc) http.HandlerFunc{
		middleware.LoggingMiddleware,
	}
	if deps.Metrics != nil {
		base = append(base, middleware.MetricsMiddleware(deps.Metrics))
	}
	base = append(base, middleware.CORSMiddleware)

	public := base
	if deps.RateLimiter != nil {
		public = append(append([]func(http.HandlerFunc) http.HandlerFunc{}, base...),
			middleware.RateLimit(deps.RateLimiter, deps.ClientIPs, deps.Logger))
	}

	authenticated := append(append([]func(http.HandlerFunc) http.HandlerFunc{}, base...),
		middleware.AuthMiddleware(deps.TokenManager))
	admin := append(append([]func(http.HandlerFunc) http.HandlerFunc{}, authenticated...),
		middleware.RequireRoles(utils.RoleAdmin))

	// Swagger docs
	mux.HandleFunc("GET /swagger/", httpSwagger.WrapHandler)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	mux.HandleFunc("GET /health", middleware.ChainMiddleware(deps.Health.Health, base...))

	// Client API
	mux.HandleFunc("POST /api/license/activate", middleware.ChainMiddleware(deps.Licenses.Activate, public...))
	mux.HandleFunc("POST /api/license/validate", middleware.ChainMiddleware(deps.Licenses.Validate, public...))

	// Admin API
	mux.HandleFunc("POST /api/admin/licenses", middleware.ChainMiddleware(deps.Licenses.Generate, admin...))
	mux.HandleFunc("GET /api/admin/licenses/{key}", middleware.ChainMiddleware(deps.Licenses.Get, admin...))
	mux.HandleFunc("GET /api/admin/licenses/{key}/activity", middleware.ChainMiddleware(deps.Licenses.Activity, admin...))
	mux.HandleFunc("POST /api/admin/licenses/{key}/suspend", middleware.ChainMiddleware(deps.Licenses.Suspend, admin...))
	mux.HandleFunc("POST /api/admin/licenses/{key}/reinstate", middleware.ChainMiddleware(deps.Licenses.Reinstate, admin...))

	// User API
	mux.HandleFunc("GET /api/licenses", middleware.ChainMiddleware(deps.Licenses.ListMine, authenticated...))

	// CORS preflight; CORSMiddleware answers before noContent runs
	mux.HandleFunc("OPTIONS /api/", middleware.ChainMiddleware(noContent, base...))

	return mux
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
