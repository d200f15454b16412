package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentRecord is the ingestion ledger row. One row per filename;
// Ingested is monotonic - it is never reset to false by normal operation.
type DocumentRecord struct {
	Id         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename   string     `gorm:"type:varchar(512);uniqueIndex;not null"`
	FilePath   string     `gorm:"type:text;not null"`
	Ingested   bool       `gorm:"not null;default:false"`
	IngestedAt *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (DocumentRecord) TableName() string {
	return "document_records"
}
