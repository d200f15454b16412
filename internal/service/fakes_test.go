package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"riverai-be/internal/entity"
	"riverai-be/internal/repository/contract"
	"riverai-be/internal/repository/specification"
	"riverai-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory unit of work for service tests. Specifications are
// interpreted by type switch; only the ones the services use are
// supported.

type fakeUowFactory struct {
	uow *fakeUow
}

func newFakeUowFactory() *fakeUowFactory {
	return &fakeUowFactory{uow: newFakeUow()}
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeUow struct {
	users         map[uuid.UUID]*entity.User
	conversations map[uuid.UUID]*entity.Conversation
	turns         []*entity.ChatTurn
	records       map[string]*entity.DocumentRecord
	embeddings    []*entity.DocumentEmbedding
	states        map[string]*entity.SessionState

	inTx bool
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		users:         make(map[uuid.UUID]*entity.User),
		conversations: make(map[uuid.UUID]*entity.Conversation),
		records:       make(map[string]*entity.DocumentRecord),
		states:        make(map[string]*entity.SessionState),
	}
}

func (u *fakeUow) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.inTx = true
	return nil
}

func (u *fakeUow) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	return nil
}

func (u *fakeUow) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.inTx = false
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{uow: u}
}

func (u *fakeUow) ConversationRepository() contract.ConversationRepository {
	return &fakeConversationRepo{uow: u}
}

func (u *fakeUow) ChatTurnRepository() contract.ChatTurnRepository {
	return &fakeChatTurnRepo{uow: u}
}

func (u *fakeUow) DocumentRecordRepository() contract.DocumentRecordRepository {
	return &fakeDocumentRecordRepo{uow: u}
}

func (u *fakeUow) DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository {
	return &fakeDocumentEmbeddingRepo{uow: u}
}

func (u *fakeUow) SessionStateRepository() contract.SessionStateRepository {
	return &fakeSessionStateRepo{uow: u}
}

// --- users ---

type fakeUserRepo struct {
	uow *fakeUow
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.uow.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.uow.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.uow.users, id)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, user := range r.uow.users {
		if userMatches(user, specs) {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var out []*entity.User
	for _, user := range r.uow.users {
		if userMatches(user, specs) {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	users, _ := r.FindAll(ctx, specs...)
	return int64(len(users)), nil
}

func userMatches(user *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if user.Id != s.ID {
				return false
			}
		case specification.ByUsername:
			if user.Username != s.Username {
				return false
			}
		}
	}
	return true
}

// --- conversations ---

type fakeConversationRepo struct {
	uow *fakeUow
}

func (r *fakeConversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	r.uow.conversations[c.Id] = c
	return nil
}

func (r *fakeConversationRepo) Update(ctx context.Context, c *entity.Conversation) error {
	r.uow.conversations[c.Id] = c
	return nil
}

func (r *fakeConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.uow.conversations, id)
	return nil
}

func (r *fakeConversationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	matches, _ := r.FindAll(ctx, specs...)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeConversationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	var out []*entity.Conversation
	for _, c := range r.uow.conversations {
		if conversationMatches(c, specs) {
			out = append(out, c)
		}
	}
	applyConversationOrder(out, specs)
	return out, nil
}

func (r *fakeConversationRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, _ := r.FindAll(ctx, specs...)
	return int64(len(matches)), nil
}

func conversationMatches(c *entity.Conversation, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if c.Id != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if c.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

func applyConversationOrder(out []*entity.Conversation, specs []specification.Specification) {
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok && s.Field == "updated_at" {
			sort.SliceStable(out, func(i, j int) bool {
				ti := conversationUpdatedAt(out[i])
				tj := conversationUpdatedAt(out[j])
				if s.Desc {
					return ti.After(tj)
				}
				return ti.Before(tj)
			})
		}
	}
}

func conversationUpdatedAt(c *entity.Conversation) time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

// --- turns ---

type fakeChatTurnRepo struct {
	uow *fakeUow
}

func (r *fakeChatTurnRepo) Create(ctx context.Context, turn *entity.ChatTurn) error {
	r.uow.turns = append(r.uow.turns, turn)
	return nil
}

func (r *fakeChatTurnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i, t := range r.uow.turns {
		if t.Id == id {
			r.uow.turns = append(r.uow.turns[:i], r.uow.turns[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeChatTurnRepo) DeleteAllByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	var kept []*entity.ChatTurn
	for _, t := range r.uow.turns {
		if t.ConversationId != conversationId {
			kept = append(kept, t)
		}
	}
	r.uow.turns = kept
	return nil
}

func (r *fakeChatTurnRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatTurn, error) {
	matches, _ := r.FindAll(ctx, specs...)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeChatTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error) {
	var out []*entity.ChatTurn
	for _, t := range r.uow.turns {
		if turnMatches(t, specs) {
			out = append(out, t)
		}
	}
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok && s.Field == "created_at" {
			sort.SliceStable(out, func(i, j int) bool {
				if s.Desc {
					return out[i].CreatedAt.After(out[j].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		}
	}
	return out, nil
}

func (r *fakeChatTurnRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, _ := r.FindAll(ctx, specs...)
	return int64(len(matches)), nil
}

func turnMatches(t *entity.ChatTurn, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if t.Id != s.ID {
				return false
			}
		case specification.ByConversationID:
			if t.ConversationId != s.ConversationID {
				return false
			}
		case specification.ByRole:
			if t.Role != s.Role {
				return false
			}
		}
	}
	return true
}

// --- document records ---

type fakeDocumentRecordRepo struct {
	uow *fakeUow
}

func (r *fakeDocumentRecordRepo) Create(ctx context.Context, record *entity.DocumentRecord) error {
	if _, exists := r.uow.records[record.Filename]; exists {
		return fmt.Errorf("duplicate key value violates unique constraint on filename")
	}
	r.uow.records[record.Filename] = record
	return nil
}

func (r *fakeDocumentRecordRepo) Update(ctx context.Context, record *entity.DocumentRecord) error {
	r.uow.records[record.Filename] = record
	return nil
}

func (r *fakeDocumentRecordRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for name, rec := range r.uow.records {
		if rec.Id == id {
			delete(r.uow.records, name)
			return nil
		}
	}
	return nil
}

func (r *fakeDocumentRecordRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentRecord, error) {
	for _, rec := range r.uow.records {
		if recordMatches(rec, specs) {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRecordRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentRecord, error) {
	var out []*entity.DocumentRecord
	for _, rec := range r.uow.records {
		if recordMatches(rec, specs) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeDocumentRecordRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, _ := r.FindAll(ctx, specs...)
	return int64(len(matches)), nil
}

func recordMatches(rec *entity.DocumentRecord, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByFilename:
			if rec.Filename != s.Filename {
				return false
			}
		case specification.Ingested:
			if rec.Ingested != s.Value {
				return false
			}
		}
	}
	return true
}

// --- document embeddings ---

type fakeDocumentEmbeddingRepo struct {
	uow *fakeUow
}

func (r *fakeDocumentEmbeddingRepo) Create(ctx context.Context, e *entity.DocumentEmbedding) error {
	r.uow.embeddings = append(r.uow.embeddings, e)
	return nil
}

func (r *fakeDocumentEmbeddingRepo) CreateBulk(ctx context.Context, es []*entity.DocumentEmbedding) error {
	r.uow.embeddings = append(r.uow.embeddings, es...)
	return nil
}

func (r *fakeDocumentEmbeddingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i, e := range r.uow.embeddings {
		if e.Id == id {
			r.uow.embeddings = append(r.uow.embeddings[:i], r.uow.embeddings[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeDocumentEmbeddingRepo) DeleteByFilename(ctx context.Context, filename string) error {
	var kept []*entity.DocumentEmbedding
	for _, e := range r.uow.embeddings {
		if e.Filename != filename {
			kept = append(kept, e)
		}
	}
	r.uow.embeddings = kept
	return nil
}

func (r *fakeDocumentEmbeddingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEmbedding, error) {
	return r.uow.embeddings, nil
}

func (r *fakeDocumentEmbeddingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.uow.embeddings)), nil
}

func (r *fakeDocumentEmbeddingRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredDocumentEmbedding, error) {
	var out []*contract.ScoredDocumentEmbedding
	for _, e := range r.uow.embeddings {
		out = append(out, &contract.ScoredDocumentEmbedding{Embedding: e, Similarity: 1})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- session state ---

type fakeSessionStateRepo struct {
	uow *fakeUow
}

func (r *fakeSessionStateRepo) Upsert(ctx context.Context, state *entity.SessionState) error {
	state.UpdatedAt = time.Now()
	r.uow.states[state.Key] = state
	return nil
}

func (r *fakeSessionStateRepo) FindByKey(ctx context.Context, key string) (*entity.SessionState, error) {
	return r.uow.states[key], nil
}

func (r *fakeSessionStateRepo) DeleteByKey(ctx context.Context, key string) error {
	delete(r.uow.states, key)
	return nil
}

// --- misc fakes ---

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type capturePublisher struct {
	payloads [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}
