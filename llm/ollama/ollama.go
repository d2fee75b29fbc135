// Package ollama is the llm dialect for a local Ollama server's /api/chat.
package ollama

import (
	"encoding/json"

	"github.com/kbukum/verbatim/httpclient"
	"github.com/kbukum/verbatim/llm"
)

const (
	DialectName    = "ollama"
	defaultBaseURL = "http://localhost:11434"
)

func init() {
	llm.RegisterDialect(DialectName, Dialect{})
}

// Dialect implements llm.Dialect for Ollama.
type Dialect struct{}

func (Dialect) Name() string           { return DialectName }
func (Dialect) DefaultBaseURL() string { return defaultBaseURL }
func (Dialect) ChatPath(string) string { return "/api/chat" }
func (Dialect) HealthPath() string     { return "/api/tags" }

// Auth sends a bearer token when one is configured, for servers behind a proxy.
func (Dialect) Auth(apiKey string) *httpclient.AuthConfig {
	if apiKey == "" {
		return nil
	}
	return httpclient.BearerAuth(apiKey)
}

type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         llm.Message `json:"message"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	msgs := make([]llm.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	msgs = append(msgs, req.Messages...)
	return chatRequest{
		Model:    req.Model,
		Messages: msgs,
		Options:  options{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}, nil
}

func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var r chatResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{
		Content:      r.Message.Content,
		Model:        r.Model,
		FinishReason: r.DoneReason,
		Usage: llm.Usage{
			PromptTokens:     r.PromptEvalCount,
			CompletionTokens: r.EvalCount,
			TotalTokens:      r.PromptEvalCount + r.EvalCount,
		},
	}, nil
}
