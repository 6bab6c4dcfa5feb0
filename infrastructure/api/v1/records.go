package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/momah-portal/embedgen"
	"github.com/momah-portal/embedgen/application/service"
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/infrastructure/api/middleware"
	"github.com/momah-portal/embedgen/infrastructure/api/v1/dto"
)

// RecordsRouter handles entity row endpoints.
type RecordsRouter struct {
	client *embedgen.Client
	logger *slog.Logger
}

// NewRecordsRouter creates a new RecordsRouter.
func NewRecordsRouter(client *embedgen.Client) *RecordsRouter {
	return &RecordsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for record endpoints.
func (r *RecordsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{entity}", r.List)
	router.Post("/{entity}", r.Import)
	router.Get("/{entity}/{id}", r.Get)

	return router
}

// List handles GET /api/v1/records/{entity}. ?missing=true restricts the
// listing to rows without an embedding, ?embedded=true to rows with one.
// ?model= keeps rows embedded by that model and ?order=desc lists newest
// first.
func (r *RecordsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	name := chi.URLParam(req, "entity")
	query := req.URL.Query()
	pagination := ParsePagination(req)

	order := query.Get("order")
	if order != "" && order != "asc" && order != "desc" {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "order must be asc or desc", nil), r.logger)
		return
	}

	params := service.RecordListParams{
		MissingOnly: query.Get("missing") == "true",
		Embedded:    query.Get("embedded") == "true",
		Model:       query.Get("model"),
		Descending:  order == "desc",
		Limit:       pagination.Limit(),
		Offset:      pagination.Offset(),
	}
	records, err := r.client.Records.List(ctx, name, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.client.Records.Count(ctx, name, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.Record, len(records))
	for i, record := range records {
		data[i] = recordDTO(record)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.RecordListResponse{
		Data: data,
		Meta: PaginationMeta(pagination, total),
	})
}

// Get handles GET /api/v1/records/{entity}/{id}.
func (r *RecordsRouter) Get(w http.ResponseWriter, req *http.Request) {
	record, err := r.client.Records.Get(req.Context(), chi.URLParam(req, "entity"), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, recordDTO(record))
}

// Import handles POST /api/v1/records/{entity}.
func (r *RecordsRouter) Import(w http.ResponseWriter, req *http.Request) {
	var body dto.ImportRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	items := make([]service.ImportItem, len(body.Records))
	for i, rec := range body.Records {
		items[i] = service.ImportItem{ID: rec.ID, Fields: rec.Fields}
	}

	res, err := r.client.Records.Import(req.Context(), chi.URLParam(req, "entity"), items)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, dto.ImportResponse{IDs: res.IDs, Replaced: res.Replaced})
}

func recordDTO(r entity.Record) dto.Record {
	return dto.Record{
		ID:                     r.ID(),
		Fields:                 r.Fields(),
		HasEmbedding:           r.HasEmbedding(),
		Dimensions:             len(r.Embedding()),
		EmbeddingModel:         r.EmbeddingModel(),
		EmbeddingGeneratedDate: r.EmbeddingGeneratedDate(),
	}
}
