package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Username     string
	PasswordHash string
	Role         string
	ApiBaseURL   *string
	ApiKey       *string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	IsDeleted    bool
}
