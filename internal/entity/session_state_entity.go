package entity

import "time"

type SessionState struct {
	Key       string
	StateJSON []byte
	UpdatedAt time.Time
}
