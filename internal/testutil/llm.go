package testutil

import (
	"context"
	"sync"

	"StockInsight/internal/advisor"
)

// StaticProvider replies with fixed text and remembers the prompts it was given.
type StaticProvider struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []advisor.Prompt
}

func (s *StaticProvider) Generate(_ context.Context, p advisor.Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	return s.Reply, s.Err
}

func (s *StaticProvider) Type() advisor.ProviderType { return "static" }

func (s *StaticProvider) Close() error { return nil }

// Prompts returns the prompts received so far.
func (s *StaticProvider) Prompts() []advisor.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]advisor.Prompt(nil), s.prompts...)
}
