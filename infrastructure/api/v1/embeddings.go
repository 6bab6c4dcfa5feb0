// Package v1 implements the /api/v1 routes.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/momah-portal/embedgen"
	"github.com/momah-portal/embedgen/infrastructure/api/middleware"
	"github.com/momah-portal/embedgen/infrastructure/api/v1/dto"
)

// EmbeddingsRouter handles embedding generation endpoints.
type EmbeddingsRouter struct {
	client *embedgen.Client
	logger *slog.Logger
}

// NewEmbeddingsRouter creates a new EmbeddingsRouter.
func NewEmbeddingsRouter(client *embedgen.Client) *EmbeddingsRouter {
	return &EmbeddingsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for embedding endpoints.
func (r *EmbeddingsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/generate", r.Generate)
	router.Get("/entities", r.Entities)

	return router
}

// Generate handles POST /api/v1/embeddings/generate.
func (r *EmbeddingsRouter) Generate(w http.ResponseWriter, req *http.Request) {
	var body dto.GenerateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	r.logger.InfoContext(req.Context(), "embedding generation requested",
		slog.String("entity", body.EntityName),
		slog.String("mode", body.Mode),
		slog.Int("ids", len(body.EntityIDs)),
		slog.String("caller", middleware.Caller(req.Context())),
	)

	summary, err := r.client.Embeddings.Generate(req.Context(), body.EntityName, body.Mode, body.EntityIDs)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewGenerateResponse(summary))
}

// Entities handles GET /api/v1/embeddings/entities.
func (r *EmbeddingsRouter) Entities(w http.ResponseWriter, req *http.Request) {
	coverage, err := r.client.Records.Coverage(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.EntityCoverage, len(coverage))
	for i, c := range coverage {
		data[i] = dto.EntityCoverage{
			Entity:  string(c.Entity),
			Table:   c.Table,
			Total:   c.Total,
			Missing: c.Missing,
		}
	}
	middleware.WriteJSON(w, http.StatusOK, dto.EntitiesResponse{Data: data})
}
