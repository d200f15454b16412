package constant

const (
	ChatTurnRoleUser      = "user"
	ChatTurnRoleAssistant = "assistant"
	ChatTurnRoleSystem    = "system"

	ConversationModeChat  = "chat"
	ConversationModeAgent = "agent"

	// Title of a conversation is taken from the first message, capped here.
	ConversationTitleMaxRunes = 20
	ConversationDefaultTitle  = "New conversation"

	// Terminal SSE sentinel sent on the "end" event.
	StreamDoneSentinel = "[DONE]"

	// Namespace for agent scratch memory keys (namespace:session_id).
	SessionMemoryNamespace = "river_shoreline"

	AgentSystemPromptV1 = `You are the river shoreline intelligence assistant. Answer the user's
question using ONLY the provided document excerpts when they are present.

RULES:
1. Cite sources as "Reference [N]" for every fact taken from an excerpt.
2. If the excerpts do not contain the answer, say so briefly.
3. Respond in Markdown. Be direct and concise.`

	AgentToolPromptV1 = `TOOLS:
When a tool returns an image path or URL, display it with Markdown image
syntax: ![Result Image](<url>). Do not just say the image is ready.
If the user provides an image path, pass it to the relevant tool unchanged.`

	// Header prepended before retrieved excerpts in the grounded prompt.
	AgentContextHeader = "=== DOCUMENT EXCERPTS ==="
)
