package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/insightpath-backend/internal/platform/httpx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

const (
	pathLearningPath = "/api/ai/generate-learning-path"
	pathInsights     = "/api/ai/generate-insights"
	pathReview       = "/api/ai/generate-review"
)

type HTTPConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

// HTTPError is a non-2xx response from the collaborator.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ai collaborator http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// HTTPGateway talks JSON to an external collaborator service.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func NewHTTPGateway(cfg HTTPConfig, log *logger.Logger) (*HTTPGateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("ai.http.base_url is required for the http gateway")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &HTTPGateway{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		log:        log.With("client", "AICollaboratorHTTP"),
	}, nil
}

func (g *HTTPGateway) Name() string { return "http" }

func (g *HTTPGateway) GenerateLearningPath(ctx context.Context, req LearningPathRequest) (*LearningPathResponse, error) {
	var out LearningPathResponse
	if err := g.post(ctx, pathLearningPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) GenerateInsights(ctx context.Context, req InsightsRequest) ([]InsightDetail, error) {
	var out []InsightDetail
	if err := g.post(ctx, pathInsights, req, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []InsightDetail{}
	}
	return out, nil
}

func (g *HTTPGateway) GenerateReview(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	var out ReviewResponse
	if err := g.post(ctx, pathReview, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := g.doOnce(ctx, path, payload)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("decode %s response: %w", path, uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= g.maxRetries {
			return err
		}
		sleepFor := httpx.RetryAfterDuration(resp, httpx.Backoff(attempt, g.backoff, 10*time.Second), 10*time.Second)
		g.log.Warn("collaborator request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", g.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
	}
}

func (g *HTTPGateway) doOnce(ctx context.Context, path string, payload []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return resp, raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
