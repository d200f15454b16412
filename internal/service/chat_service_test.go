package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riverai-be/internal/apperror"
	"riverai-be/internal/constant"
	"riverai-be/internal/dto"
	"riverai-be/internal/entity"
	"riverai-be/internal/repository/memory"
	"riverai-be/internal/repository/specification"
	"riverai-be/pkg/agent"
)

func newChatService(factory *fakeUowFactory) IChatService {
	sessionMemory := agent.NewSessionMemory(memory.NewSessionRepository(), factory, constant.SessionMemoryNamespace)
	return NewChatService(factory, sessionMemory, nopLogger{})
}

func TestSendMessage_NewConversationTitleTruncated(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{
		Content: "What is the water level?",
	})

	require.NoError(t, err)
	assert.Equal(t, "What is the water le", res.Title)
	assert.Len(t, []rune(res.Title), 20)

	conversation := factory.uow.conversations[res.ConversationId]
	require.NotNil(t, conversation)
	assert.Equal(t, constant.ConversationModeChat, conversation.Mode)
}

func TestSendMessage_ShortContentKeptAsTitle(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)

	res, err := svc.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{
		Content: "hi",
		Mode:    constant.ConversationModeAgent,
	})

	require.NoError(t, err)
	assert.Equal(t, "hi", res.Title)
	assert.Equal(t, constant.ConversationModeAgent, factory.uow.conversations[res.ConversationId].Mode)
}

func TestSendMessage_EmptyContentRejected(t *testing.T) {
	svc := newChatService(newFakeUowFactory())

	_, err := svc.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{
		Content: "   ",
	})

	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestSendMessage_UnknownConversationNotFound(t *testing.T) {
	svc := newChatService(newFakeUowFactory())
	missing := uuid.New()

	_, err := svc.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{
		ConversationId: &missing,
		Content:        "hello",
	})

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSendMessage_AppendsToExistingConversation(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	first, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "first"})
	require.NoError(t, err)

	second, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{
		ConversationId: &first.ConversationId,
		Content:        "second",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationId, second.ConversationId)
	assert.Len(t, factory.uow.turns, 2)
	// Mode and title are fixed at creation, later messages do not change them.
	assert.Equal(t, "first", factory.uow.conversations[first.ConversationId].Title)
}

func TestGetConversations_MostRecentlyUpdatedFirst(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	older, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "older"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "newer"})
	require.NoError(t, err)

	list, err := svc.GetConversations(context.Background(), userId)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ConversationId, list[0].Id)
	assert.Equal(t, older.ConversationId, list[1].Id)
}

func TestGetTurns_AscendingWithReferences(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "question"})
	require.NoError(t, err)

	refs := []map[string]interface{}{{"file_name": "report.pdf"}}
	require.NoError(t, svc.CompleteStream(context.Background(), res.ConversationId, "answer", refs))

	turns, err := svc.GetTurns(context.Background(), userId, res.ConversationId)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, constant.ChatTurnRoleUser, turns[0].Role)
	assert.Equal(t, constant.ChatTurnRoleAssistant, turns[1].Role)
	assert.Equal(t, refs, turns[1].References)
}

func TestGetTurns_OtherUsersConversationHidden(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)

	res, err := svc.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{Content: "mine"})
	require.NoError(t, err)

	_, err = svc.GetTurns(context.Background(), uuid.New(), res.ConversationId)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDelete_CascadesTurns(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "one"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{
			ConversationId: &res.ConversationId,
			Content:        "more",
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(context.Background(), userId, res.ConversationId))

	assert.Empty(t, factory.uow.conversations)
	remaining, err := factory.uow.ChatTurnRepository().FindAll(context.Background(),
		specification.ByConversationID{ConversationID: res.ConversationId})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRename_UpdatesTitle(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "original"})
	require.NoError(t, err)

	require.NoError(t, svc.Rename(context.Background(), userId, res.ConversationId, &dto.RenameConversationRequest{
		Title: "renamed",
	}))

	assert.Equal(t, "renamed", factory.uow.conversations[res.ConversationId].Title)
}

func TestPrepareStream_EmptyConversationNotFound(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "empty",
		Mode:      constant.ConversationModeChat,
		CreatedAt: time.Now(),
	}
	factory.uow.conversations[conversation.Id] = conversation

	_, _, err := svc.PrepareStream(context.Background(), userId, conversation.Id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPrepareStream_ReturnsLatestUserTurn(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "first question"})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteStream(context.Background(), res.ConversationId, "first answer", nil))

	time.Sleep(5 * time.Millisecond)
	_, err = svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{
		ConversationId: &res.ConversationId,
		Content:        "second question",
	})
	require.NoError(t, err)

	_, turn, err := svc.PrepareStream(context.Background(), userId, res.ConversationId)
	require.NoError(t, err)
	assert.Equal(t, "second question", turn.Content)
	assert.Equal(t, constant.ChatTurnRoleUser, turn.Role)
}

func TestCompleteStream_BumpsConversation(t *testing.T) {
	factory := newFakeUowFactory()
	svc := newChatService(factory)
	userId := uuid.New()

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: "q"})
	require.NoError(t, err)

	before := conversationUpdatedAt(factory.uow.conversations[res.ConversationId])
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, svc.CompleteStream(context.Background(), res.ConversationId, "a", nil))

	after := conversationUpdatedAt(factory.uow.conversations[res.ConversationId])
	assert.True(t, after.After(before))
}
