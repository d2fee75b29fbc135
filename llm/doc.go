// Package llm is a provider-neutral chat completion client. A Dialect maps
// the neutral request and response types to one provider's HTTP format;
// dialect packages register themselves on import:
//
//	import _ "github.com/kbukum/verbatim/llm/gemini"
//
//	adapter, err := llm.New(llm.Config{Dialect: "gemini", Model: "gemini-2.5-flash", APIKey: key})
//	resp, err := adapter.Execute(ctx, llm.CompletionRequest{
//	    SystemPrompt: "...",
//	    Messages:     []llm.Message{{Role: llm.RoleUser, Content: text}},
//	})
package llm
