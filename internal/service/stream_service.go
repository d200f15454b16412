package service

import (
	"context"
	"encoding/json"
	"strings"

	"riverai-be/internal/config"
	"riverai-be/internal/constant"
	"riverai-be/internal/entity"
	"riverai-be/internal/pkg/logger"
	"riverai-be/internal/repository/specification"
	"riverai-be/internal/repository/unitofwork"
	"riverai-be/pkg/agent"
	"riverai-be/pkg/llm/factory"
)

// StreamEmitter writes one named transport event. Returning an error
// means the client is gone; the run is abandoned.
type StreamEmitter func(eventType string, payload []byte) error

type IStreamService interface {
	// Stream drives one agent run over the resolved user turn and
	// forwards chunks to the emitter. Every completed stream ends with
	// exactly one terminal event: "end" after natural completion,
	// "error" after an upstream failure. A disconnected client gets
	// neither, and nothing is persisted for that run.
	Stream(ctx context.Context, conversation *entity.Conversation, turn *entity.ChatTurn, emit StreamEmitter)
}

type streamService struct {
	chatService IChatService
	baseAgent   *agent.Agent
	uowFactory  unitofwork.RepositoryFactory
	aiConfig    config.AIConfig
	log         logger.ILogger
}

func NewStreamService(
	chatService IChatService,
	baseAgent *agent.Agent,
	uowFactory unitofwork.RepositoryFactory,
	aiConfig config.AIConfig,
	log logger.ILogger,
) IStreamService {
	return &streamService{
		chatService: chatService,
		baseAgent:   baseAgent,
		uowFactory:  uowFactory,
		aiConfig:    aiConfig,
		log:         log,
	}
}

// agentFor applies the user's endpoint override when one is configured.
func (s *streamService) agentFor(ctx context.Context, conversation *entity.Conversation) *agent.Agent {
	user, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx,
		specification.ByID{ID: conversation.UserId})
	if err != nil || user == nil {
		return s.baseAgent
	}
	if user.ApiBaseURL == nil || user.ApiKey == nil {
		return s.baseAgent
	}

	provider, err := factory.NewLLMProvider("openai", s.aiConfig.LLMModel, *user.ApiBaseURL, *user.ApiKey)
	if err != nil {
		s.log.Warn("stream", "Invalid per-user provider, using default", map[string]interface{}{
			"user_id": user.Id.String(),
			"error":   err.Error(),
		})
		return s.baseAgent
	}
	return s.baseAgent.WithProvider(provider)
}

func (s *streamService) Stream(ctx context.Context, conversation *entity.Conversation, turn *entity.ChatTurn, emit StreamEmitter) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ag := s.agentFor(runCtx, conversation)
	agentMode := conversation.Mode == constant.ConversationModeAgent

	source := ag.Run(runCtx, conversation.Id.String(), turn.Content, agentMode)
	chunks, errc := agent.Assemble(runCtx, source)

	var reply strings.Builder
	var references []map[string]interface{}

	for chunk := range chunks {
		payload, err := json.Marshal(chunk)
		if err != nil {
			continue
		}
		if err := emit("message", payload); err != nil {
			// Client disconnected. Abandon the run, emit no terminal
			// event and persist nothing beyond what was committed.
			cancel()
			for range chunks {
			}
			<-errc
			return
		}

		reply.WriteString(chunk.Content)
		if references == nil && len(chunk.References) > 0 {
			references = chunk.References
		}
	}

	if err := <-errc; err != nil {
		if emitErr := emit("error", []byte(err.Error())); emitErr != nil {
			s.log.Warn("stream", "Failed to deliver error event", map[string]interface{}{
				"conversation_id": conversation.Id.String(),
			})
		}
		return
	}

	if err := emit("end", []byte(constant.StreamDoneSentinel)); err != nil {
		return
	}

	// Persist only after natural completion was delivered.
	if err := s.chatService.CompleteStream(context.Background(), conversation.Id, reply.String(), references); err != nil {
		s.log.Error("stream", "Failed to persist assistant turn", map[string]interface{}{
			"conversation_id": conversation.Id.String(),
			"error":           err.Error(),
		})
	}
}
