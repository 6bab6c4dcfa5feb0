package persistence

import (
	"time"

	"github.com/momah-portal/embedgen/internal/database"
)

// RecordModel is the row shape shared by every entity table. The
// entity-specific columns live in Fields; the three embedding columns are
// the only ones the generation pipeline writes.
type RecordModel struct {
	ID                     string          `gorm:"column:id;primaryKey;type:varchar(64)"`
	Fields                 map[string]any  `gorm:"column:fields;serializer:json;type:text"`
	Embedding              database.Vector `gorm:"column:embedding;type:text"`
	EmbeddingModel         string          `gorm:"column:embedding_model;type:varchar(128)"`
	EmbeddingGeneratedDate *time.Time      `gorm:"column:embedding_generated_date"`
	CreatedAt              time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
