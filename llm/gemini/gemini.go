// Package gemini is the llm dialect for the Gemini generateContent API.
package gemini

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/verbatim/httpclient"
	"github.com/kbukum/verbatim/llm"
)

const (
	DialectName    = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	apiKeyHeader   = "x-goog-api-key"
)

func init() {
	llm.RegisterDialect(DialectName, Dialect{})
}

// Dialect implements llm.Dialect for Gemini.
type Dialect struct{}

func (Dialect) Name() string           { return DialectName }
func (Dialect) DefaultBaseURL() string { return defaultBaseURL }
func (Dialect) HealthPath() string     { return "/v1beta/models" }

func (Dialect) ChatPath(model string) string {
	return "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
}

func (Dialect) Auth(apiKey string) *httpclient.AuthConfig {
	if apiKey == "" {
		return nil
	}
	return httpclient.APIKeyAuthHeader(apiKey, apiKeyHeader)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type request struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// BuildRequest maps system messages to systemInstruction and assistant
// turns to the "model" role.
func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	out := request{GenerationConfig: generationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}}

	system := req.SystemPrompt
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = strings.TrimSpace(system + "\n" + m.Content)
		case llm.RoleAssistant:
			out.Contents = append(out.Contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			out.Contents = append(out.Contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}
	if len(out.Contents) == 0 {
		return nil, fmt.Errorf("gemini: at least one user message is required")
	}
	if system != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	return out, nil
}

func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}

	out := &llm.CompletionResponse{
		Model: r.ModelVersion,
		Usage: llm.Usage{
			PromptTokens:     r.UsageMetadata.PromptTokenCount,
			CompletionTokens: r.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      r.UsageMetadata.TotalTokenCount,
		},
	}
	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			out.FinishReason = r.PromptFeedback.BlockReason
		}
		return out, nil
	}

	c := r.Candidates[0]
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}
	out.Content = sb.String()
	out.FinishReason = c.FinishReason
	return out, nil
}
