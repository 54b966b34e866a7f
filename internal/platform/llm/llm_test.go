package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/insightpath-backend/internal/observability"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
}

func topicsSchema() *Schema {
	return &Schema{
		Name: "test-topics",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
			},
			"required":             []any{"topics"},
			"additionalProperties": false,
		},
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"topics":["a"]}`)},
	)
	resp, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"topics":["a"]}`, string(resp.Content))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	bad := MockResponse{Content: json.RawMessage(`{"topics":[]}`)}
	mock := NewMockProvider(bad, bad, bad)
	_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{Schema: topicsSchema()})

	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_ContextCanceledStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	_, err := WithRetry(mock, fastRetry()).Generate(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetry_MaxTokensNotRetried(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{}}, MockResponse{Content: json.RawMessage(`{}`)})
	_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestValidateAndDecode(t *testing.T) {
	var out struct {
		Topics []string `json:"topics"`
	}
	err := Decode(&Response{Content: json.RawMessage(`{"topics":["x","y"]}`)}, topicsSchema(), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, out.Topics)

	err = Decode(&Response{Content: json.RawMessage(`not json`)}, topicsSchema(), &out)
	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)

	err = Decode(&Response{Content: json.RawMessage(`{"topics":["x"],"extra":1}`)}, topicsSchema(), &out)
	require.ErrorAs(t, err, &inv)
}

func TestMockResponder(t *testing.T) {
	mock := NewMockProvider()
	mock.Responder = func(req Request) MockResponse {
		return MockResponse{Content: json.RawMessage(`{"topics":["` + req.Messages[0].Content + `"]}`)}
	}
	resp, err := mock.Generate(context.Background(), UserPrompt("sys", "Chess", topicsSchema(), 100))
	require.NoError(t, err)
	assert.JSONEq(t, `{"topics":["Chess"]}`, string(resp.Content))
}

func TestObservedProviderMetrics(t *testing.T) {
	m := observability.New(time.Second)
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`), Usage: Usage{InputTokens: 10, OutputTokens: 4}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
	)
	p := WithObservability(mock, nil, m)
	ctx := WithPurpose(context.Background(), "learning_path")

	_, err := p.Generate(ctx, Request{})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)
	assert.Equal(t, "rate_limited", statusOf(err))
	assert.Equal(t, "mock", p.ModelID())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Provider = "openai"
	require.Error(t, cfg.Validate())
	cfg.OpenAI.APIKey = "sk-test"
	require.NoError(t, cfg.Validate())

	cfg.Provider = "llama"
	require.Error(t, cfg.Validate())
}

func TestNewProviderMock(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil, nil)
	require.NoError(t, err)
	_, ok := p.(*MockProvider)
	assert.True(t, ok)
}

func TestPurposeDefault(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	assert.Equal(t, "review", PurposeFrom(WithPurpose(context.Background(), "review")))
}
