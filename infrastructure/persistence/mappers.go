package persistence

import (
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/internal/database"
)

// RecordMapper maps between entity.Record and RecordModel.
type RecordMapper struct{}

// ToDomain converts a RecordModel to an entity.Record.
func (RecordMapper) ToDomain(m RecordModel) entity.Record {
	return entity.ReconstructRecord(
		m.ID,
		m.Fields,
		m.Embedding.Floats(),
		m.EmbeddingModel,
		m.EmbeddingGeneratedDate,
	)
}

// ToModel converts an entity.Record to a RecordModel.
func (RecordMapper) ToModel(r entity.Record) RecordModel {
	return RecordModel{
		ID:                     r.ID(),
		Fields:                 r.Fields(),
		Embedding:              database.NewVector(r.Embedding()),
		EmbeddingModel:         r.EmbeddingModel(),
		EmbeddingGeneratedDate: r.EmbeddingGeneratedDate(),
	}
}
