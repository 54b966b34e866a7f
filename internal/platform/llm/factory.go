package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

// NewProvider builds the configured provider wrapped as caller -> retry -> observed -> base.
// The mock provider is returned bare with an empty queue.
func NewProvider(ctx context.Context, cfg Config, log *logger.Logger, metrics *observability.Metrics) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		base Provider
		err  error
	)
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock", "":
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", name, err)
	}
	return WithRetry(WithObservability(base, log, metrics), cfg.Retry), nil
}
