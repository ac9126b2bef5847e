package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Role identifies the author of a message in a completion request.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry in the conversation sent to a model.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the data sent to a model.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the raw response from a model.
type CompletionResponse struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction interface. Implementations make
// exactly one HTTP call per Complete and never retry.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Name() string
}

// newHTTPClient returns the client every provider sends through. It has no
// Timeout: the caller's context is the only deadline on a model call.
func newHTTPClient() *http.Client {
	return &http.Client{}
}

// New creates a provider by name.
func New(provider, model string) (Completer, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "gemini", "google":
		return NewGemini(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// Names lists the accepted provider names, aliases included.
func Names() []string {
	return []string{"openai", "anthropic", "gemini", "google", "ollama", "lmstudio"}
}

// splitSystem separates system messages from the rest for APIs that take the
// system prompt as a dedicated field.
func splitSystem(msgs []Message) (string, []Message) {
	var sys []string
	var rest []Message
	for _, m := range msgs {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(sys, "\n"), rest
}

func modelOr(reqModel, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	return fallback
}
