package service

import (
	"context"
	"strings"
	"time"

	"riverai-be/internal/apperror"
	"riverai-be/internal/constant"
	"riverai-be/internal/dto"
	"riverai-be/internal/entity"
	"riverai-be/internal/pkg/logger"
	"riverai-be/internal/repository/specification"
	"riverai-be/internal/repository/unitofwork"
	"riverai-be/pkg/agent"
	"riverai-be/pkg/utils"

	"github.com/google/uuid"
)

type IChatService interface {
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.GetConversationsResponse, error)
	GetTurns(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) ([]*dto.GetTurnsResponse, error)
	Rename(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID, req *dto.RenameConversationRequest) error
	Delete(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error

	// PrepareStream resolves the conversation and its latest user turn.
	// A stream may not start on an empty conversation.
	PrepareStream(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*entity.Conversation, *entity.ChatTurn, error)

	// CompleteStream persists the assembled assistant turn after a
	// natural stream completion and bumps the conversation.
	CompleteStream(ctx context.Context, conversationId uuid.UUID, content string, references []map[string]interface{}) error
}

type chatService struct {
	uowFactory    unitofwork.RepositoryFactory
	sessionMemory *agent.SessionMemory
	log           logger.ILogger
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, sessionMemory *agent.SessionMemory, log logger.ILogger) IChatService {
	return &chatService{
		uowFactory:    uowFactory,
		sessionMemory: sessionMemory,
		log:           log,
	}
}

func deriveTitle(content string) string {
	title := utils.TruncateRunes(strings.TrimSpace(content), constant.ConversationTitleMaxRunes)
	if title == "" {
		title = constant.ConversationDefaultTitle
	}
	return title
}

func (s *chatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperror.InvalidInput("message content is empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	var conversation *entity.Conversation
	if req.ConversationId != nil {
		existing, err := uow.ConversationRepository().FindOne(ctx,
			specification.ByID{ID: *req.ConversationId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperror.NotFound("conversation")
		}
		conversation = existing
	} else {
		mode := req.Mode
		if mode == "" {
			mode = constant.ConversationModeChat
		}
		conversation = &entity.Conversation{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     deriveTitle(req.Content),
			Mode:      mode,
			CreatedAt: time.Now(),
		}
		if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
			return nil, err
		}
	}

	turn := &entity.ChatTurn{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           constant.ChatTurnRoleUser,
		Content:        req.Content,
		CreatedAt:      time.Now(),
	}
	if err := uow.ChatTurnRepository().Create(ctx, turn); err != nil {
		return nil, err
	}

	// Bump updated_at on existing conversations so listing order follows
	// activity.
	now := time.Now()
	conversation.UpdatedAt = &now
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.SendMessageResponse{
		ConversationId: conversation.Id,
		TurnId:         turn.Id,
		Title:          conversation.Title,
	}, nil
}

func (s *chatService) GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.GetConversationsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.GetConversationsResponse, 0, len(conversations))
	for _, c := range conversations {
		result = append(result, &dto.GetConversationsResponse{
			Id:        c.Id,
			Title:     c.Title,
			Mode:      c.Mode,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return result, nil
}

func (s *chatService) findOwnedConversation(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, conversationId uuid.UUID) (*entity.Conversation, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperror.NotFound("conversation")
	}
	return conversation, nil
}

func (s *chatService) GetTurns(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) ([]*dto.GetTurnsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedConversation(ctx, uow, userId, conversationId); err != nil {
		return nil, err
	}

	turns, err := uow.ChatTurnRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.GetTurnsResponse, 0, len(turns))
	for _, t := range turns {
		result = append(result, &dto.GetTurnsResponse{
			Id:         t.Id,
			Role:       t.Role,
			Content:    t.Content,
			References: t.References,
			CreatedAt:  t.CreatedAt,
		})
	}
	return result, nil
}

func (s *chatService) Rename(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID, req *dto.RenameConversationRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := s.findOwnedConversation(ctx, uow, userId, conversationId)
	if err != nil {
		return err
	}

	conversation.Title = req.Title
	now := time.Now()
	conversation.UpdatedAt = &now
	return uow.ConversationRepository().Update(ctx, conversation)
}

// Delete cascades: turns first, then the conversation row, one
// transaction. Session scratch memory is cleared best-effort after.
func (s *chatService) Delete(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedConversation(ctx, uow, userId, conversationId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatTurnRepository().DeleteAllByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if err := s.sessionMemory.Clear(ctx, conversationId.String()); err != nil {
		s.log.Warn("chat", "Failed to clear session memory", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	}
	return nil
}

func (s *chatService) PrepareStream(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*entity.Conversation, *entity.ChatTurn, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := s.findOwnedConversation(ctx, uow, userId, conversationId)
	if err != nil {
		return nil, nil, err
	}

	turn, err := uow.ChatTurnRepository().FindOne(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.ByRole{Role: constant.ChatTurnRoleUser},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, nil, err
	}
	if turn == nil {
		return nil, nil, apperror.NotFound("user turn")
	}

	return conversation, turn, nil
}

func (s *chatService) CompleteStream(ctx context.Context, conversationId uuid.UUID, content string, references []map[string]interface{}) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return err
	}
	if conversation == nil {
		return apperror.NotFound("conversation")
	}

	turn := &entity.ChatTurn{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           constant.ChatTurnRoleAssistant,
		Content:        content,
		References:     references,
		CreatedAt:      time.Now(),
	}
	if err := uow.ChatTurnRepository().Create(ctx, turn); err != nil {
		return err
	}

	now := time.Now()
	conversation.UpdatedAt = &now
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		return err
	}

	return uow.Commit()
}
