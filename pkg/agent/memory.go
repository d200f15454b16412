package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"riverai-be/internal/entity"
	"riverai-be/internal/repository/memory"
	"riverai-be/internal/repository/unitofwork"
	"riverai-be/pkg/llm"
	"riverai-be/pkg/store"
)

// Keep the last N turns of scratch history per session.
const maxHistoryMessages = 20

// SessionMemory persists agent scratch history per session, cache in
// front, session_states table behind. Last writer wins.
type SessionMemory struct {
	cache      *memory.SessionRepository
	uowFactory unitofwork.RepositoryFactory
	namespace  string
}

func NewSessionMemory(cache *memory.SessionRepository, uowFactory unitofwork.RepositoryFactory, namespace string) *SessionMemory {
	return &SessionMemory{
		cache:      cache,
		uowFactory: uowFactory,
		namespace:  namespace,
	}
}

func (m *SessionMemory) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", m.namespace, sessionID)
}

// Load returns the prior message history for a session, empty when the
// session has none. Cache misses fall through to the database.
func (m *SessionMemory) Load(ctx context.Context, sessionID string) ([]llm.Message, error) {
	key := m.key(sessionID)

	if session, found := m.cache.Get(key); found {
		return decodeHistory(session.State)
	}

	state, err := m.uowFactory.NewUnitOfWork(ctx).SessionStateRepository().FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(state.StateJSON, &decoded); err != nil {
		// Corrupt scratch state is not worth failing a chat over.
		return nil, nil
	}

	m.cache.Save(&store.Session{ID: key, State: decoded, UpdatedAt: state.UpdatedAt})
	return decodeHistory(decoded)
}

// Save replaces the session history, truncated to the most recent
// messages, in both cache and database.
func (m *SessionMemory) Save(ctx context.Context, sessionID string, history []llm.Message) error {
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	encoded := make([]interface{}, len(history))
	for i, msg := range history {
		encoded[i] = map[string]interface{}{
			"role":    msg.Role,
			"content": msg.Content,
		}
	}
	state := map[string]interface{}{"history": encoded}

	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}

	key := m.key(sessionID)
	err = m.uowFactory.NewUnitOfWork(ctx).SessionStateRepository().Upsert(ctx, &entity.SessionState{
		Key:       key,
		StateJSON: blob,
	})
	if err != nil {
		return err
	}

	m.cache.Save(&store.Session{ID: key, State: state, UpdatedAt: time.Now()})
	return nil
}

// Clear drops the session scratch state, used on conversation delete.
func (m *SessionMemory) Clear(ctx context.Context, sessionID string) error {
	key := m.key(sessionID)
	m.cache.Delete(key)
	return m.uowFactory.NewUnitOfWork(ctx).SessionStateRepository().DeleteByKey(ctx, key)
}

func decodeHistory(state map[string]interface{}) ([]llm.Message, error) {
	raw, ok := state["history"].([]interface{})
	if !ok {
		return nil, nil
	}

	history := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		if role == "" || content == "" {
			continue
		}
		history = append(history, llm.Message{Role: role, Content: content})
	}
	return history, nil
}
