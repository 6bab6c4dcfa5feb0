// Package dto holds the request and response bodies of the v1 API.
package dto

import (
	"time"

	"github.com/momah-portal/embedgen/domain/embedding"
)

// GenerateRequest is the body of POST /api/v1/embeddings/generate.
type GenerateRequest struct {
	EntityName string   `json:"entity_name"`
	EntityIDs  []string `json:"entity_ids,omitempty"`
	Mode       string   `json:"mode,omitempty"`
}

// EmptyRunResponse is returned when no record matched the request.
type EmptyRunResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
}

// GenerateResponse reports every per-record outcome of a run.
type GenerateResponse struct {
	Success    bool                `json:"success"`
	Processed  int                 `json:"processed"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Results    []embedding.Outcome `json:"results"`
	EntityName string              `json:"entity_name"`
}

// NoEntitiesMessage is reported when a run selects nothing.
const NoEntitiesMessage = "No entities to process"

// NewGenerateResponse converts a run summary into its response body.
func NewGenerateResponse(s embedding.Summary) any {
	if s.Empty() {
		return EmptyRunResponse{Success: true, Message: NoEntitiesMessage, Processed: 0}
	}
	results := s.Results
	if results == nil {
		results = []embedding.Outcome{}
	}
	return GenerateResponse{
		Success:    true,
		Processed:  s.Processed,
		Successful: s.Successful,
		Failed:     s.Failed,
		Results:    results,
		EntityName: string(s.EntityName),
	}
}

// EntityCoverage is one entry of GET /api/v1/embeddings/entities.
type EntityCoverage struct {
	Entity  string `json:"entity"`
	Table   string `json:"table"`
	Total   int64  `json:"total"`
	Missing int64  `json:"missing"`
}

// EntitiesResponse lists the embeddable entity kinds.
type EntitiesResponse struct {
	Data []EntityCoverage `json:"data"`
}

// ImportRequest is the body of POST /api/v1/records/{entity}.
type ImportRequest struct {
	Records []ImportRecord `json:"records"`
}

// ImportRecord is one row of an ImportRequest.
type ImportRecord struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

// ImportResponse lists the ids written by an import and how many of them
// replaced an existing row.
type ImportResponse struct {
	IDs      []string `json:"ids"`
	Replaced int64    `json:"replaced"`
}

// Record is the API view of one entity row. The vector itself is omitted;
// Dimensions reports its length.
type Record struct {
	ID                     string         `json:"id"`
	Fields                 map[string]any `json:"fields"`
	HasEmbedding           bool           `json:"has_embedding"`
	Dimensions             int            `json:"dimensions,omitempty"`
	EmbeddingModel         string         `json:"embedding_model,omitempty"`
	EmbeddingGeneratedDate *time.Time     `json:"embedding_generated_date,omitempty"`
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// RecordListResponse is one page of records.
type RecordListResponse struct {
	Data []Record `json:"data"`
	Meta PageMeta `json:"meta"`
}
