package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riverai-be/internal/config"
	"riverai-be/internal/constant"
	"riverai-be/internal/dto"
	"riverai-be/internal/entity"
	"riverai-be/internal/repository/memory"
	"riverai-be/pkg/agent"
	"riverai-be/pkg/knowledge"
	"riverai-be/pkg/llm"
)

// scriptedLLM replays fixed deltas, optionally failing afterwards.
type scriptedLLM struct {
	deltas []string
	err    error
}

func (s scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return strings.Join(s.deltas, ""), s.err
}

func (s scriptedLLM) ChatStream(ctx context.Context, history []llm.Message, handler llm.StreamHandler, opts ...llm.Option) error {
	for _, d := range s.deltas {
		if err := handler(d); err != nil {
			return err
		}
	}
	return s.err
}

func (s scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, opts...)
}

type emittedEvent struct {
	eventType string
	payload   string
}

type eventCollector struct {
	events  []emittedEvent
	failAt  int // fail on the Nth emit (1-based), 0 = never
	emitted int
}

func (c *eventCollector) emit(eventType string, payload []byte) error {
	c.emitted++
	if c.failAt > 0 && c.emitted >= c.failAt {
		return errors.New("client disconnected")
	}
	c.events = append(c.events, emittedEvent{eventType: eventType, payload: string(payload)})
	return nil
}

func (c *eventCollector) byType(eventType string) []emittedEvent {
	var out []emittedEvent
	for _, e := range c.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type streamFixture struct {
	factory   *fakeUowFactory
	chatSvc   IChatService
	streamSvc IStreamService
}

func newStreamFixture(t *testing.T, provider llm.LLMProvider, seedDocs bool) *streamFixture {
	t.Helper()

	factory := newFakeUowFactory()
	if seedDocs {
		factory.uow.embeddings = append(factory.uow.embeddings, &entity.DocumentEmbedding{
			Id:             uuid.New(),
			Filename:       "report.pdf",
			Page:           1,
			Document:       "The recorded water level was 3.2 meters.",
			EmbeddingValue: []float32{0.1, 0.2, 0.3},
		})
	}

	retriever, err := knowledge.NewRetriever(factory, fixedEmbedder{}, 5)
	require.NoError(t, err)

	sessionMemory := agent.NewSessionMemory(memory.NewSessionRepository(), factory, constant.SessionMemoryNamespace)
	ag, err := agent.NewAgent(provider, retriever, sessionMemory, nopLogger{})
	require.NoError(t, err)

	chatSvc := NewChatService(factory, sessionMemory, nopLogger{})
	streamSvc := NewStreamService(chatSvc, ag, factory, config.AIConfig{}, nopLogger{})

	return &streamFixture{factory: factory, chatSvc: chatSvc, streamSvc: streamSvc}
}

func (f *streamFixture) startConversation(t *testing.T, content string) (*entity.Conversation, *entity.ChatTurn) {
	t.Helper()

	userId := uuid.New()
	res, err := f.chatSvc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Content: content})
	require.NoError(t, err)

	conversation, turn, err := f.chatSvc.PrepareStream(context.Background(), userId, res.ConversationId)
	require.NoError(t, err)
	return conversation, turn
}

func TestStream_NaturalCompletionEndsWithSingleEnd(t *testing.T) {
	fixture := newStreamFixture(t, scriptedLLM{deltas: []string{"The level ", "is 3.2m. ", "Reference [1]"}}, true)
	conversation, turn := fixture.startConversation(t, "What is the water level?")

	collector := &eventCollector{}
	fixture.streamSvc.Stream(context.Background(), conversation, turn, collector.emit)

	require.NotEmpty(t, collector.events)
	last := collector.events[len(collector.events)-1]
	assert.Equal(t, "end", last.eventType)
	assert.Equal(t, constant.StreamDoneSentinel, last.payload)
	assert.Len(t, collector.byType("end"), 1)
	assert.Empty(t, collector.byType("error"))
}

func TestStream_MessageChunksInOrder(t *testing.T) {
	fixture := newStreamFixture(t, scriptedLLM{deltas: []string{"alpha ", "beta ", "gamma"}}, false)
	conversation, turn := fixture.startConversation(t, "question")

	collector := &eventCollector{}
	fixture.streamSvc.Stream(context.Background(), conversation, turn, collector.emit)

	var contents []string
	for _, e := range collector.byType("message") {
		var chunk agent.OutputChunk
		require.NoError(t, json.Unmarshal([]byte(e.payload), &chunk))
		if chunk.Content != "" {
			contents = append(contents, chunk.Content)
		}
	}
	assert.Equal(t, []string{"alpha ", "beta ", "gamma"}, contents)
}

func TestStream_ReferencesDeliveredBeforeText(t *testing.T) {
	fixture := newStreamFixture(t, scriptedLLM{deltas: []string{"grounded answer"}}, true)
	conversation, turn := fixture.startConversation(t, "What is the water level?")

	collector := &eventCollector{}
	fixture.streamSvc.Stream(context.Background(), conversation, turn, collector.emit)

	messages := collector.byType("message")
	require.NotEmpty(t, messages)

	var first agent.OutputChunk
	require.NoError(t, json.Unmarshal([]byte(messages[0].payload), &first))
	require.Len(t, first.References, 1)
	assert.Equal(t, "report.pdf", first.References[0]["name"])
}

func TestStream_PersistsAssistantTurnOnCompletion(t *testing.T) {
	fixture := newStreamFixture(t, scriptedLLM{deltas: []string{"persisted reply"}}, true)
	conversation, turn := fixture.startConversation(t, "question")

	collector := &eventCollector{}
	fixture.streamSvc.Stream(context.Background(), conversation, turn, collector.emit)

	var assistant *entity.ChatTurn
	for _, tr := range fixture.factory.uow.turns {
		if tr.Role == constant.ChatTurnRoleAssistant {
			assistant = tr
		}
	}
	require.NotNil(t, assistant)
	assert.Equal(t, "persisted reply", assistant.Content)
	assert.NotEmpty(t, assistant.References)
}

func TestStream_UpstreamFailureEmitsSingleError(t *testing.T) {
	fixture := newStreamFixture(t, scriptedLLM{
		deltas: []string{"partial "},
		err:    errors.New("model connection reset"),
	}, false)
	conversation, turn := fixture.startConversation(t, "question")

	collector := &eventCollector{}
	fixture.streamSvc.Stream(context.Background(), conversation, turn, collector.emit)

	last := collector.events[len(collector.events)-1]
	assert.Equal(t, "error", last.eventType)
	assert.Contains(t, last.payload, "model connection reset")
	assert.Len(t, collector.byType("error"), 1)
	assert.Empty(t, collector.byType("end"))

	// Failed runs persist no assistant turn.
	for _, tr := range fixture.factory.uow.turns {
		assert.NotEqual(t, constant.ChatTurnRoleAssistant, tr.Role)
	}
}

func TestStream_ClientDisconnectAbandonsRun(t *testing.T) {
	fixture := newStreamFixture(t, scriptedLLM{deltas: []string{"one ", "two ", "three"}}, false)
	conversation, turn := fixture.startConversation(t, "question")

	collector := &eventCollector{failAt: 2}
	fixture.streamSvc.Stream(context.Background(), conversation, turn, collector.emit)

	assert.Empty(t, collector.byType("end"))
	assert.Empty(t, collector.byType("error"))

	for _, tr := range fixture.factory.uow.turns {
		assert.NotEqual(t, constant.ChatTurnRoleAssistant, tr.Role)
	}
}
