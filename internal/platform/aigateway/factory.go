package aigateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/insightpath-backend/internal/data/repos"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/llm"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

// Config selects the collaborator transport. Mode is http or llm; mock is only built for tests
// that construct the chain directly.
type Config struct {
	Mode      string        `mapstructure:"mode"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LogQueue  int           `mapstructure:"log_queue"`
	HTTP      HTTPConfig    `mapstructure:"http"`
	LLM       llm.Config    `mapstructure:"llm"`
	RecordLog bool          `mapstructure:"record_log"`
}

// Built is the assembled gateway chain. Recorder is nil when call logging is off.
type Built struct {
	Gateway  Gateway
	Recorder *Recorder
}

// New assembles fallback -> recorder -> transport adapter.
func New(ctx context.Context, cfg Config, callLog repos.AICallLogRepo, log *logger.Logger, metrics *observability.Metrics) (*Built, error) {
	var (
		base Gateway
		err  error
	)
	switch mode := strings.ToLower(strings.TrimSpace(cfg.Mode)); mode {
	case "http":
		base, err = NewHTTPGateway(cfg.HTTP, log)
	case "llm":
		var p llm.Provider
		p, err = llm.NewProvider(ctx, cfg.LLM, log, metrics)
		if err == nil {
			base = NewLLMGateway(p, cfg.LLM.MaxTokens, cfg.LLM.Temperature, log)
		}
	case "mock":
		base = NewMock()
	default:
		err = fmt.Errorf("unknown ai gateway mode: %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	out := &Built{}
	inner := base
	if cfg.RecordLog && callLog != nil {
		out.Recorder = NewRecorder(base, callLog, cfg.LogQueue, log, metrics)
		inner = out.Recorder
	}
	out.Gateway = WithFallback(inner, cfg.Timeout, log, metrics)
	return out, nil
}
