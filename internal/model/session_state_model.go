package model

import (
	"time"

	"gorm.io/datatypes"
)

// SessionState is the agent's scratch memory blob. Last-writer-wins,
// keyed by "namespace:session_id".
type SessionState struct {
	Key       string         `gorm:"type:varchar(255);primaryKey"`
	StateJSON datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (SessionState) TableName() string {
	return "session_states"
}
