package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Document represents the documents table - every collection shares it, keyed by (collection, id)
type Document struct {
	// Collection is the logical collection name (leads, activity_log, loi_entries)
	Collection string `gorm:"column:collection;primaryKey;type:text"`
	// ID is a ULID allocated on insert
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Data is the JSON body of the document
	Data      datatypes.JSON `gorm:"column:data;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}
