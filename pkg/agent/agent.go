package agent

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"riverai-be/internal/apperror"
	"riverai-be/internal/constant"
	"riverai-be/internal/pkg/logger"
	"riverai-be/pkg/knowledge"
	"riverai-be/pkg/llm"
)

var citationPattern = regexp.MustCompile(`Reference \[(\d+)\]`)

// Agent runs one grounded chat turn: load session memory, retrieve
// excerpts, stream the model reply, extract citations, save memory.
// Each Run returns a fresh, non-restartable EventSource.
type Agent struct {
	provider  llm.LLMProvider
	retriever *knowledge.Retriever
	memory    *SessionMemory
	log       logger.ILogger
}

// NewAgent validates its collaborators up front so a missing provider
// fails at startup rather than on the first stream.
func NewAgent(provider llm.LLMProvider, retriever *knowledge.Retriever, memory *SessionMemory, log logger.ILogger) (*Agent, error) {
	if provider == nil {
		return nil, apperror.Configuration("agent requires an LLM provider")
	}
	if retriever == nil {
		return nil, apperror.Configuration("agent requires a retriever")
	}
	if memory == nil {
		return nil, apperror.Configuration("agent requires session memory")
	}
	return &Agent{
		provider:  provider,
		retriever: retriever,
		memory:    memory,
		log:       log,
	}, nil
}

// WithProvider returns a copy of the agent bound to a different LLM
// provider. Used for per-user endpoint overrides.
func (a *Agent) WithProvider(provider llm.LLMProvider) *Agent {
	clone := *a
	clone.provider = provider
	return &clone
}

// streamSource bridges the producer goroutine into the pull-based
// EventSource contract. After the channel closes, Next reports the
// terminal error once, then io.EOF.
type streamSource struct {
	events <-chan Event
	errc   <-chan error
}

func (s *streamSource) Next(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			select {
			case err, pending := <-s.errc:
				if pending && err != nil {
					return Event{}, err
				}
			default:
			}
			return Event{}, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Run starts an agent run for one prompt. The returned source yields,
// in order: one references event (when retrieval found anything), the
// streamed text deltas, and one citations event (when the reply cited
// any excerpt).
func (a *Agent) Run(ctx context.Context, sessionID string, prompt string, agentMode bool) EventSource {
	events := make(chan Event)
	errc := make(chan error, 1)

	go func() {
		defer close(events)

		if err := a.run(ctx, sessionID, prompt, agentMode, events); err != nil {
			errc <- err
		}
		close(errc)
	}()

	return &streamSource{events: events, errc: errc}
}

func (a *Agent) run(ctx context.Context, sessionID string, prompt string, agentMode bool, events chan<- Event) error {
	history, err := a.memory.Load(ctx, sessionID)
	if err != nil {
		a.log.Warn("agent", "Failed to load session memory, starting fresh", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		history = nil
	}

	docs, err := a.retriever.Search(ctx, prompt)
	if err != nil {
		// Retrieval failure degrades to an ungrounded answer.
		a.log.Warn("agent", "Retrieval failed, answering without context", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		docs = nil
	}

	if len(docs) > 0 {
		refs := make([]interface{}, len(docs))
		for i, d := range docs {
			refs[i] = d
		}
		if !send(ctx, events, Event{Kind: KindText, References: refs}) {
			return ctx.Err()
		}
	}

	messages := a.buildMessages(history, prompt, docs, agentMode)

	var reply strings.Builder
	err = a.provider.ChatStream(ctx, messages, func(delta string) error {
		reply.WriteString(delta)
		if !send(ctx, events, Event{Kind: KindText, Content: delta}) {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if citations := extractCitations(reply.String(), docs); len(citations) > 0 {
		if !send(ctx, events, Event{Kind: KindText, Citations: citations}) {
			return ctx.Err()
		}
	}

	history = append(history,
		llm.Message{Role: constant.ChatTurnRoleUser, Content: prompt},
		llm.Message{Role: constant.ChatTurnRoleAssistant, Content: reply.String()},
	)
	if err := a.memory.Save(ctx, sessionID, history); err != nil {
		a.log.Warn("agent", "Failed to save session memory", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	return nil
}

func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Agent) buildMessages(history []llm.Message, prompt string, docs []*knowledge.Document, agentMode bool) []llm.Message {
	system := constant.AgentSystemPromptV1
	if agentMode {
		system += "\n\n" + constant.AgentToolPromptV1
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: constant.ChatTurnRoleSystem, Content: system})
	messages = append(messages, history...)

	content := prompt
	if len(docs) > 0 {
		var b strings.Builder
		b.WriteString(constant.AgentContextHeader)
		b.WriteString("\n")
		for i, d := range docs {
			fmt.Fprintf(&b, "\nReference [%d] (%s):\n%s\n", i+1, d.Name, d.Content)
		}
		b.WriteString("\n")
		b.WriteString(prompt)
		content = b.String()
	}
	messages = append(messages, llm.Message{Role: constant.ChatTurnRoleUser, Content: content})

	return messages
}

// extractCitations maps "Reference [N]" markers in the reply back to the
// retrieved documents, in order of first mention.
func extractCitations(reply string, docs []*knowledge.Document) []interface{} {
	if len(docs) == 0 {
		return nil
	}

	matches := citationPattern.FindAllStringSubmatch(reply, -1)
	seen := make(map[int]struct{}, len(matches))

	var citations []interface{}
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(docs) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}

		doc := docs[n-1]
		citations = append(citations, map[string]interface{}{
			"index":     n,
			"file_name": doc.Name,
			"meta_data": doc.MetaData,
		})
	}
	return citations
}
