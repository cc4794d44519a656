package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// VectorIndex records how a named index was provisioned.
type VectorIndex struct {
	Name      string    `gorm:"type:text;primaryKey"`
	Dimension int       `gorm:"not null"`
	Metric    string    `gorm:"type:text;not null;default:cosine"`
	Capacity  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VectorIndex) TableName() string {
	return "vector_indexes"
}

// VectorRecord is one stored chunk. Namespace separates the fixed corpus from
// the active document.
type VectorRecord struct {
	Id             string            `gorm:"type:text;primaryKey"`
	Namespace      string            `gorm:"type:text;not null;index"`
	Content        string            `gorm:"type:text"`
	Page           *int              `gorm:"default:null"`
	Source         string            `gorm:"type:text"`
	EmbeddingValue pgvector.Vector   `gorm:"type:vector"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
}

func (VectorRecord) TableName() string {
	return "vector_records"
}
