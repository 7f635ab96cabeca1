package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned when the provider selected by the model id has no key.
var ErrMissingAPIKey = errors.New("missing model API key")

// ProviderType names an LLM vendor.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderClaude ProviderType = "claude"
)

// Prompt is one system + user message pair.
type Prompt struct {
	System string
	User   string
}

// Provider sends a prompt to a language model and returns the raw reply text.
type Provider interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Type() ProviderType
	Close() error
}

// Keys holds the API keys read from the environment.
type Keys struct {
	Gemini    string
	Anthropic string
}

// DetectProvider determines the provider from a model string such as
// "gemini-2.5-flash", "claude-sonnet-4-5" or "anthropic/claude-sonnet-4-5".
// Unknown ids go to Gemini.
func DetectProvider(model string) ProviderType {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "claude/"), strings.HasPrefix(m, "anthropic/"), strings.HasPrefix(m, "claude-"):
		return ProviderClaude
	default:
		return ProviderGemini
	}
}

// NormalizeModel strips a provider prefix from the model id.
func NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// NewProvider builds the provider for model. It fails with ErrMissingAPIKey before
// any network traffic when the matching key is empty.
func NewProvider(ctx context.Context, model string, keys Keys) (Provider, error) {
	name := NormalizeModel(model)
	switch DetectProvider(model) {
	case ProviderClaude:
		if strings.TrimSpace(keys.Anthropic) == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is required for %s", ErrMissingAPIKey, model)
		}
		return NewClaudeProvider(keys.Anthropic, name), nil
	default:
		if strings.TrimSpace(keys.Gemini) == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is required for %s", ErrMissingAPIKey, model)
		}
		return NewGeminiProvider(ctx, keys.Gemini, name)
	}
}
