package store

import "time"

// Session is the agent's in-flight scratch memory for one conversation.
// The authoritative copy lives in the session_states table; this struct
// is the decoded form handed around in memory.
type Session struct {
	ID        string
	State     map[string]interface{}
	UpdatedAt time.Time
}
