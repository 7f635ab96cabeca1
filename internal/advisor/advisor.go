package advisor

import (
	"context"
	"fmt"
	"time"

	"StockInsight/internal/model"

	"github.com/rs/zerolog/log"
)

// Advisor builds the batched prompt, calls the provider and decodes its reply.
type Advisor struct {
	provider Provider
	timeout  time.Duration
}

func New(provider Provider, timeout time.Duration) *Advisor {
	return &Advisor{provider: provider, timeout: timeout}
}

// Advise returns the model's recommendations for in.Records. Provider failures and
// unrecoverable replies are returned as errors.
func (a *Advisor) Advise(ctx context.Context, in PromptInput) (*model.Advice, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(in)
	start := time.Now()
	text, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("advisor: %w", err)
	}
	log.Info().Str("provider", string(a.provider.Type())).Dur("elapsed", time.Since(start)).
		Int("reply_bytes", len(text)).Msg("model replied")

	advice, err := ParseAdvice(text)
	if err != nil {
		return nil, err
	}
	if advice.Date == "" {
		advice.Date = in.Date
	}
	for _, r := range in.Records {
		if _, ok := advice.Lookup(r.Requested); !ok {
			log.Warn().Str("symbol", r.Requested).Msg("model reply has no recommendation")
		}
	}
	return advice, nil
}
