package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/momah-portal/embedgen"
	apimiddleware "github.com/momah-portal/embedgen/infrastructure/api/middleware"
	v1 "github.com/momah-portal/embedgen/infrastructure/api/v1"
	mcpinternal "github.com/momah-portal/embedgen/internal/mcp"
)

// readTimeout bounds the read-only v1 routes.
const readTimeout = 60 * time.Second

// APIServerOption configures an APIServer.
type APIServerOption func(*APIServer)

// WithCORSAllowedOrigins enables CORS for the given origins.
func WithCORSAllowedOrigins(origins []string) APIServerOption {
	return func(a *APIServer) {
		a.corsOrigins = origins
	}
}

// WithMetricsEndpoint toggles GET /metrics.
func WithMetricsEndpoint(enabled bool) APIServerOption {
	return func(a *APIServer) {
		a.metricsEnabled = enabled
	}
}

// WithVersion sets the version reported by GET / and MCP initialize.
func WithVersion(version string) APIServerOption {
	return func(a *APIServer) {
		a.version = version
	}
}

// APIServer provides an HTTP API backed by an embedgen Client.
type APIServer struct {
	client         *embedgen.Client
	server         *Server
	router         chi.Router
	routerCalled   bool
	logger         *slog.Logger
	corsOrigins    []string
	metricsEnabled bool
	version        string
}

// NewAPIServer creates a new APIServer wired to the given Client. The
// client's API keys protect every /api/v1 route; with no keys configured
// every caller is anonymous.
func NewAPIServer(client *embedgen.Client, opts ...APIServerOption) *APIServer {
	a := &APIServer{
		client:         client,
		logger:         client.Logger(),
		metricsEnabled: true,
		version:        "dev",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", apimiddleware.APIKeyHeader, apimiddleware.CorrelationIDHeader},
			ExposedHeaders:   []string{apimiddleware.CorrelationIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	auth := apimiddleware.NewAuthConfigWithKeys(c.APIKeys())
	if !auth.Enabled() {
		a.logger.Warn("no API_KEYS configured, API accepts anonymous callers")
	}

	router.Get("/", a.info)
	router.Get("/health", a.health)
	router.Get("/healthz", a.health)
	router.Mount(DocsPath, NewDocsRouter(DocsPath+"/openapi.json").Routes())
	if a.metricsEnabled {
		router.Handle("/metrics", c.Metrics().Handler())
	}

	embeddingsRouter := v1.NewEmbeddingsRouter(c)
	recordsRouter := v1.NewRecordsRouter(c)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(apimiddleware.APIKey(auth))

		// Generation runs are bounded by the server write timeout only.
		r.Mount("/embeddings", embeddingsRouter.Routes())

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(readTimeout))
			r.Mount("/records", recordsRouter.Routes())
		})
	})

	// MCP uses streaming responses and is incompatible with chi's Timeout
	// middleware, which wraps the ResponseWriter.
	mcpSrv := mcpinternal.NewServer(c.Embeddings, c.Records, a.version, a.logger)
	router.Group(func(r chi.Router) {
		r.Use(apimiddleware.APIKey(auth))
		r.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
	})
}

type infoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (a *APIServer) info(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, infoResponse{Name: embedgen.ServiceName, Version: a.version})
}

type healthResponse struct {
	Status string `json:"status"`
}

func (a *APIServer) health(w http.ResponseWriter, r *http.Request) {
	if err := a.client.Ping(r.Context()); err != nil {
		a.logger.Warn("health check failed", slog.Any("error", err))
		apimiddleware.WriteError(w, r, apimiddleware.NewServerError(http.StatusServiceUnavailable, "unhealthy: "+err.Error()), nil)
		return
	}
	apimiddleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
