package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/verbatim/httpclient"
)

// Dialect maps CompletionRequest and CompletionResponse to one provider's
// HTTP API.
type Dialect interface {
	Name() string

	// ChatPath returns the completion endpoint for model.
	ChatPath(model string) string

	// HealthPath returns a cheap GET endpoint, or "" when there is none.
	HealthPath() string

	// Auth returns how apiKey is presented. Nil means no authentication.
	Auth(apiKey string) *httpclient.AuthConfig

	BuildRequest(req CompletionRequest) (any, error)
	ParseResponse(body []byte) (*CompletionResponse, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds a dialect to the registry, typically from init.
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect looks up a registered dialect.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
