package models

// Roles accepted by every upstream backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single conversational message in the unified schema.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is the canonical representation of a chat completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        float64
	Stream      bool
}

// ChatResponse captures a buffered provider reply in the unified schema.
type ChatResponse struct {
	ID           string
	Message      Message
	Usage        Usage
	FinishReason string
}

// StreamChunk is one fragment of a streamed reply. A chunk carrying Err is
// always the last value sent before the channel is closed.
type StreamChunk struct {
	Delta string
	Err   error
}

// Usage records token accounting information.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Model identifies a known model with provider metadata.
type Model struct {
	ID       string
	Provider string
	APIStyle string
}
