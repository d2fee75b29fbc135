package gemini

import (
	"encoding/json"
	"testing"

	"github.com/kbukum/verbatim/llm"
)

func TestChatPath(t *testing.T) {
	if got := (Dialect{}).ChatPath("gemini-2.5-flash"); got != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("ChatPath = %q", got)
	}
}

func TestBuildRequest(t *testing.T) {
	body, err := Dialect{}.BuildRequest(llm.CompletionRequest{
		SystemPrompt: "You are an expert transcriber.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Refine this transcript:\n\nhi"}},
		Temperature:  0.3,
	})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(body)

	var got struct {
		SystemInstruction struct {
			Parts []struct{ Text string } `json:"parts"`
		} `json:"systemInstruction"`
		Contents []struct {
			Role  string                  `json:"role"`
			Parts []struct{ Text string } `json:"parts"`
		} `json:"contents"`
		GenerationConfig struct {
			Temperature float64 `json:"temperature"`
		} `json:"generationConfig"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.SystemInstruction.Parts[0].Text != "You are an expert transcriber." {
		t.Errorf("system = %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 1 || got.Contents[0].Role != "user" || got.Contents[0].Parts[0].Text != "Refine this transcript:\n\nhi" {
		t.Errorf("contents = %+v", got.Contents)
	}
	if got.GenerationConfig.Temperature != 0.3 {
		t.Errorf("temperature = %v", got.GenerationConfig.Temperature)
	}
}

func TestBuildRequestNeedsUserMessage(t *testing.T) {
	if _, err := (Dialect{}).BuildRequest(llm.CompletionRequest{SystemPrompt: "only system"}); err == nil {
		t.Error("expected error")
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantText   string
		wantReason string
	}{
		{
			name:       "joined parts",
			body:       `{"candidates":[{"content":{"role":"model","parts":[{"text":"**Speaker 1:** Hi"},{"text":" there."}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":4,"totalTokenCount":14},"modelVersion":"gemini-2.5-flash"}`,
			wantText:   "**Speaker 1:** Hi there.",
			wantReason: "STOP",
		},
		{
			name:       "blocked prompt",
			body:       `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantReason: "SAFETY",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Dialect{}.ParseResponse([]byte(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.Content != tt.wantText || resp.FinishReason != tt.wantReason {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestAuthHeader(t *testing.T) {
	if (Dialect{}).Auth("") != nil {
		t.Error("no key should mean no auth")
	}
	if a := (Dialect{}).Auth("k"); a == nil || a.Name != "x-goog-api-key" || a.Token != "k" {
		t.Errorf("auth = %+v", a)
	}
}

func TestRegistered(t *testing.T) {
	if _, err := llm.GetDialect(DialectName); err != nil {
		t.Error(err)
	}
}
