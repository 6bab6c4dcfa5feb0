package entity

import "time"

// Record is one embeddable row of an entity kind.
// Fields holds the entity-specific text and array columns; the three
// embedding fields are the only ones this service ever writes.
// This is an immutable value object.
type Record struct {
	id                     string
	fields                 map[string]any
	embedding              []float64
	embeddingModel         string
	embeddingGeneratedDate *time.Time
}

// NewRecord creates a record without an embedding.
func NewRecord(id string, fields map[string]any) Record {
	return Record{
		id:     id,
		fields: copyFields(fields),
	}
}

// ReconstructRecord recreates a record from persistence.
func ReconstructRecord(
	id string,
	fields map[string]any,
	embedding []float64,
	embeddingModel string,
	embeddingGeneratedDate *time.Time,
) Record {
	r := Record{
		id:             id,
		fields:         copyFields(fields),
		embeddingModel: embeddingModel,
	}
	if embedding != nil {
		r.embedding = append([]float64(nil), embedding...)
	}
	if embeddingGeneratedDate != nil {
		at := *embeddingGeneratedDate
		r.embeddingGeneratedDate = &at
	}
	return r
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Fields returns a copy of the record's named fields.
func (r Record) Fields() map[string]any { return copyFields(r.fields) }

// Field returns a single named field.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Embedding returns a copy of the embedding vector, or nil if absent.
func (r Record) Embedding() []float64 {
	if r.embedding == nil {
		return nil
	}
	return append([]float64(nil), r.embedding...)
}

// EmbeddingModel returns the model that produced the embedding.
func (r Record) EmbeddingModel() string { return r.embeddingModel }

// EmbeddingGeneratedDate returns when the embedding was written, or nil.
func (r Record) EmbeddingGeneratedDate() *time.Time {
	if r.embeddingGeneratedDate == nil {
		return nil
	}
	at := *r.embeddingGeneratedDate
	return &at
}

// HasEmbedding reports whether the record carries a non-empty vector.
func (r Record) HasEmbedding() bool { return len(r.embedding) > 0 }

// WithID returns a copy of the record with the given identifier.
func (r Record) WithID(id string) Record {
	r.id = id
	return r
}

// WithEmbedding returns a copy of the record with the embedding fields set.
func (r Record) WithEmbedding(vector []float64, model string, at time.Time) Record {
	r.embedding = append([]float64(nil), vector...)
	r.embeddingModel = model
	r.embeddingGeneratedDate = &at
	return r
}

func copyFields(fields map[string]any) map[string]any {
	result := make(map[string]any, len(fields))
	for k, v := range fields {
		result[k] = v
	}
	return result
}
