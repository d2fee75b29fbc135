package llm

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-neutral input.
type CompletionRequest struct {
	// Model overrides the adapter's default model.
	Model        string
	Messages     []Message
	SystemPrompt string
	Temperature  float64
	// MaxTokens of 0 leaves the provider default.
	MaxTokens int
}

// CompletionResponse is the provider-neutral output.
type CompletionResponse struct {
	Content string
	Model   string
	// FinishReason is the provider's stop reason, e.g. "STOP" or "SAFETY".
	FinishReason string
	Usage        Usage
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
