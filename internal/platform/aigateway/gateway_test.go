package aigateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/insightpath-backend/internal/data/repos"
	"github.com/yungbote/insightpath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/llm"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

func TestFallbackLearningPath(t *testing.T) {
	resp := FallbackLearningPath("Chess")
	require.Len(t, resp.Topics, FallbackTopicCount)
	assert.Equal(t, "Chess Topic 1", resp.Topics[0])
	assert.Equal(t, "Chess Topic 10", resp.Topics[9])
	assert.True(t, resp.Fallback)
}

func TestWithFallback_AbsorbsFailures(t *testing.T) {
	mock := NewMock()
	mock.FailLearningPath = errors.New("boom")
	mock.FailInsights = errors.New("boom")
	mock.FailReview = &HTTPError{StatusCode: http.StatusBadGateway}
	metrics := observability.New(time.Second)
	gw := WithFallback(mock, time.Second, logger.NewNop(), metrics)
	ctx := context.Background()

	path, err := gw.GenerateLearningPath(ctx, LearningPathRequest{DomainName: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "Go Topic 3", path.Topics[2])

	insights, err := gw.GenerateInsights(ctx, InsightsRequest{TopicName: "Basics", Level: 1})
	require.NoError(t, err)
	assert.NotNil(t, insights)
	assert.Empty(t, insights)

	review, err := gw.GenerateReview(ctx, ReviewRequest{})
	require.NoError(t, err)
	assert.Equal(t, FallbackReviewSummary, review.Summary)
	assert.Equal(t, []string{FallbackReviewStrength}, review.Strengths)
	assert.Equal(t, []string{FallbackReviewWeakness}, review.Weaknesses)
	assert.Empty(t, review.RevisionQuestions)

	assert.Equal(t, float64(1), metrics.GatewayCalls(CallLearningPath, "fallback"))
	assert.Equal(t, float64(1), metrics.GatewayCalls(CallReview, "fallback"))
}

func TestWithFallback_EmptyPathFallsBack(t *testing.T) {
	mock := NewMock()
	mock.QueueLearningPath()
	gw := WithFallback(mock, time.Second, nil, nil)

	path, err := gw.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: "Art"})
	require.NoError(t, err)
	assert.True(t, path.Fallback)
	assert.Len(t, path.Topics, FallbackTopicCount)
}

func TestWithFallback_Timeout(t *testing.T) {
	mock := NewMock()
	mock.PathResponder = func(req LearningPathRequest) (*LearningPathResponse, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, context.DeadlineExceeded
	}
	metrics := observability.New(time.Second)
	gw := WithFallback(mock, 10*time.Millisecond, nil, metrics)

	path, err := gw.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: "Go"})
	require.NoError(t, err)
	assert.True(t, path.Fallback)
	assert.Equal(t, float64(1), metrics.GatewayCalls(CallLearningPath, "timeout"))
}

func TestWithFallback_Success(t *testing.T) {
	mock := NewMock()
	mock.QueueLearningPath("Openings", "Tactics")
	metrics := observability.New(time.Second)
	gw := WithFallback(mock, time.Second, nil, metrics)

	path, err := gw.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: "Chess"})
	require.NoError(t, err)
	assert.False(t, path.Fallback)
	assert.Equal(t, []string{"Openings", "Tactics"}, path.Topics)
	assert.Equal(t, float64(1), metrics.GatewayCalls(CallLearningPath, "success"))
}

func TestHTTPGateway_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathLearningPath:
			var req LearningPathRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_, _ = fmt.Fprintf(w, `{"domainName":%q,"topics":["A","B"]}`, req.DomainName)
		case pathInsights:
			_, _ = w.Write([]byte(`[{"title":"T","explanation":"E","questions":[{"questionType":"TRUE_FALSE","questionText":"Q?","options":[],"correctAnswer":"True"}]}]`))
		case pathReview:
			_, _ = w.Write([]byte(`{"summary":"ok","strengths":["s"],"weaknesses":["w"]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	gw, err := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	path, err := gw.GenerateLearningPath(ctx, LearningPathRequest{DomainName: "Chess"})
	require.NoError(t, err)
	assert.Equal(t, "Chess", path.DomainName)
	assert.Equal(t, []string{"A", "B"}, path.Topics)

	insights, err := gw.GenerateInsights(ctx, InsightsRequest{TopicName: "A", Level: 1})
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, "TRUE_FALSE", insights[0].Questions[0].QuestionType)

	review, err := gw.GenerateReview(ctx, ReviewRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", review.Summary)
}

func TestHTTPGateway_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"topics":["A"]}`))
	}))
	defer srv.Close()

	gw, err := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, MaxRetries: 3, Backoff: time.Millisecond}, nil)
	require.NoError(t, err)
	path, err := gw.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: "X"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, path.Topics)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPGateway_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	gw, err := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, MaxRetries: 3, Backoff: time.Millisecond}, nil)
	require.NoError(t, err)
	_, err = gw.GenerateReview(context.Background(), ReviewRequest{})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewHTTPGateway_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPGateway(HTTPConfig{}, nil)
	require.Error(t, err)
}

func llmResponder(insightsJSON string) func(req llm.Request) llm.MockResponse {
	return func(req llm.Request) llm.MockResponse {
		switch req.Schema.Name {
		case "learning_path":
			topics := make([]string, 0, 12)
			for i := 1; i <= 12; i++ {
				topics = append(topics, fmt.Sprintf("Topic %d", i))
			}
			topics = append(topics, "topic 1")
			b, _ := json.Marshal(map[string]any{"topics": topics})
			return llm.MockResponse{Content: b}
		case "insights":
			return llm.MockResponse{Content: json.RawMessage(insightsJSON)}
		case "questions":
			return llm.MockResponse{Content: json.RawMessage(`{"questions":[
				{"questionType":"MULTIPLE_CHOICE","questionText":"Which?","options":["x","y"],"correctAnswer":"x",
				 "feedback":[{"answer":"x","feedback":"Right"},{"answer":"y","feedback":"No"}]},
				{"questionType":"TRUE_FALSE","questionText":"True?","options":["True","False"],"correctAnswer":"True"}]}`)}
		case "review":
			return llm.MockResponse{Content: json.RawMessage(`{"summary":"Good work","strengths":["a"],"weaknesses":["b"]}`)}
		}
		return llm.MockResponse{Err: errors.New("unexpected schema")}
	}
}

func TestLLMGateway_LearningPathDedupes(t *testing.T) {
	p := llm.NewMockProvider()
	p.Responder = llmResponder(`{"insights":[]}`)
	gw := NewLLMGateway(p, 1024, 0.5, nil)

	path, err := gw.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: "Go"})
	require.NoError(t, err)
	assert.Len(t, path.Topics, 12)
	assert.Equal(t, "llm:mock", gw.Name())
}

func TestLLMGateway_InsightsWithQuestions(t *testing.T) {
	p := llm.NewMockProvider()
	p.Responder = llmResponder(`{"insights":[{"title":"Control the center","explanation":"Pieces in the center reach more squares."},{"title":"Develop minor pieces","explanation":"Knights before bishops."}]}`)
	gw := NewLLMGateway(p, 1024, 0.5, nil)

	insights, err := gw.GenerateInsights(context.Background(), InsightsRequest{DomainName: "Chess", TopicName: "Openings", Level: 1})
	require.NoError(t, err)
	require.Len(t, insights, 2)
	for _, in := range insights {
		require.Len(t, in.Questions, 2)
		assert.Equal(t, "Right", in.Questions[0].AnswerFeedbacks["x"])
	}
	// one insights call plus one question call per insight
	assert.Equal(t, 3, p.CallCount())
}

func TestLLMGateway_EmptyInsightsUsesGenericInsight(t *testing.T) {
	p := llm.NewMockProvider()
	p.Responder = llmResponder(`{"insights":[]}`)
	gw := NewLLMGateway(p, 1024, 0.5, nil)

	insights, err := gw.GenerateInsights(context.Background(), InsightsRequest{TopicName: "Tactics", Level: 2})
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, "Key Concepts of Tactics", insights[0].Title)
	assert.NotEmpty(t, insights[0].Questions)
}

func TestLLMGateway_Review(t *testing.T) {
	p := llm.NewMockProvider()
	p.Responder = llmResponder(`{"insights":[]}`)
	gw := NewLLMGateway(p, 1024, 0.5, nil)

	review, err := gw.GenerateReview(context.Background(), ReviewRequest{PerformanceData: ReviewPerformance{TopicName: "X", Level: 1}})
	require.NoError(t, err)
	assert.Equal(t, "Good work", review.Summary)
	assert.NotNil(t, review.RevisionQuestions)
}

func TestLLMGateway_InvalidOutputFails(t *testing.T) {
	p := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"topics":["only one"]}`)})
	gw := NewLLMGateway(p, 1024, 0.5, nil)

	_, err := gw.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: "Go"})
	var inv *llm.ErrInvalidResponse
	require.ErrorAs(t, err, &inv)
}

func TestRecorder_PersistsCallLog(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewAICallLogRepo(db, testutil.Logger(t))
	mock := NewMock()
	mock.QueueLearningPath("A", "B")
	mock.FailReview = errors.New("collaborator down")

	rec := NewRecorder(mock, repo, 8, testutil.Logger(t), nil)
	rec.Start(context.Background())

	userID := uuid.New()
	tpID := uuid.New()
	ctx := context.Background()
	_, err := rec.GenerateLearningPath(ctx, LearningPathRequest{DomainName: "Go", UserID: userID})
	require.NoError(t, err)
	_, err = rec.GenerateReview(ctx, ReviewRequest{UserID: userID, TopicProgressID: tpID})
	require.Error(t, err)
	rec.Close()

	var rows []*types.AICallLog
	require.NoError(t, db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error)
	require.Len(t, rows, 2)

	byCall := map[string]bool{}
	for _, row := range rows {
		byCall[row.CallType] = row.Success
		assert.Equal(t, "mock", row.Model)
		if row.CallType == CallReview {
			require.NotNil(t, row.ContextID)
			assert.Equal(t, tpID, *row.ContextID)
			assert.True(t, strings.Contains(row.Error, "collaborator down"))
			assert.True(t, row.Fallback)
		}
	}
	assert.True(t, byCall[CallLearningPath])
	assert.False(t, byCall[CallReview])
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	metrics := observability.New(time.Second)
	mock := NewMock()
	mock.FailInsights = errors.New("x")
	rec := NewRecorder(mock, nil, 1, nil, metrics)

	// writer not started: the first row fills the queue, the second is dropped
	_, _ = rec.GenerateInsights(context.Background(), InsightsRequest{})
	_, _ = rec.GenerateInsights(context.Background(), InsightsRequest{})
	rec.Close()

	var buf strings.Builder
	require.NoError(t, metrics.WritePrometheus(&buf))
	assert.Contains(t, buf.String(), "ip_ai_call_log_dropped_total 1.000000")
}

func TestNew_MockChain(t *testing.T) {
	built, err := New(context.Background(), Config{Mode: "mock", Timeout: time.Second}, nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, built.Recorder)
	assert.Equal(t, "mock", built.Gateway.Name())

	// an unscripted mock fails, so every call degrades to its fallback
	path, err := built.Gateway.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: "Go"})
	require.NoError(t, err)
	assert.True(t, path.Fallback)

	_, err = New(context.Background(), Config{Mode: "carrier-pigeon"}, nil, nil, nil)
	require.Error(t, err)
}

func TestNew_EmptyModeIsRejected(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil, nil, nil)
	require.Error(t, err)
}

func TestMock_RecordedCallsAreBounded(t *testing.T) {
	mock := NewMock()
	mock.FailLearningPath = errors.New("down")
	mock.FailInsights = errors.New("down")
	for i := 0; i < MaxRecordedCalls+50; i++ {
		_, _ = mock.GenerateLearningPath(context.Background(), LearningPathRequest{DomainName: fmt.Sprintf("d%d", i)})
		_, _ = mock.GenerateInsights(context.Background(), InsightsRequest{Level: i})
	}
	require.Len(t, mock.PathCalls, MaxRecordedCalls)
	require.Len(t, mock.InsightsCalls, MaxRecordedCalls)
	assert.Equal(t, "d50", mock.PathCalls[0].DomainName)
	assert.Equal(t, MaxRecordedCalls+49, mock.InsightsCalls[MaxRecordedCalls-1].Level)
}
