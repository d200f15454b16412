package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentRecord struct {
	Id         uuid.UUID
	Filename   string
	FilePath   string
	Ingested   bool
	IngestedAt *time.Time
	CreatedAt  time.Time
}
