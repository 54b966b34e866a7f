package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	httpH "github.com/yungbote/insightpath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/insightpath-backend/internal/http/middleware"
	"github.com/yungbote/insightpath-backend/internal/modules/learning"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

const testSecret = "router-test-secret"

type fakeEngine struct {
	next      learning.NextInsightOutput
	reviewErr error
	started   []learning.StartDomainInput
	submitted []learning.SubmitAnswerInput
	completed []learning.CompleteReviewInput
}

func (f *fakeEngine) StartDomain(_ context.Context, in learning.StartDomainInput) (learning.StartDomainOutput, error) {
	f.started = append(f.started, in)
	return learning.StartDomainOutput{ProgressID: uuid.New(), Topics: []string{"Openings"}}, nil
}

func (f *fakeEngine) SelectTopic(_ context.Context, in learning.SelectTopicInput) (learning.SelectTopicOutput, error) {
	if in.TopicIndex > 0 {
		return learning.SelectTopicOutput{}, apierr.Validation("invalid_topic_index", "index %d", in.TopicIndex)
	}
	return learning.SelectTopicOutput{TopicName: "Openings", Level: 1}, nil
}

func (f *fakeEngine) GetDomainOverview(context.Context, uuid.UUID, uuid.UUID) (learning.DomainOverview, error) {
	return learning.DomainOverview{}, apierr.NotFound("progress_not_found", "")
}

func (f *fakeEngine) GetNextInsight(context.Context, uuid.UUID, uuid.UUID) (learning.NextInsightOutput, error) {
	return f.next, nil
}

func (f *fakeEngine) SubmitAnswer(_ context.Context, in learning.SubmitAnswerInput) (learning.SubmitAnswerOutput, error) {
	f.submitted = append(f.submitted, in)
	return learning.SubmitAnswerOutput{QuestionID: in.QuestionID, IsCorrect: true, CorrectAnswer: "A", Feedback: "Correct!"}, nil
}

func (f *fakeEngine) GetTopicProgress(context.Context, uuid.UUID, uuid.UUID) (learning.TopicProgressOutput, error) {
	return learning.TopicProgressOutput{TopicName: "Openings", Level: 1}, nil
}

func (f *fakeEngine) GetReview(context.Context, uuid.UUID, uuid.UUID) (learning.ReviewOutput, error) {
	return learning.ReviewOutput{}, f.reviewErr
}

func (f *fakeEngine) CompleteReviewAndAdvance(_ context.Context, in learning.CompleteReviewInput) (learning.CompleteReviewOutput, error) {
	f.completed = append(f.completed, in)
	return learning.CompleteReviewOutput{Outcome: learning.OutcomeAdvance, Level: 2}, nil
}

func (f *fakeEngine) ListDomainsWithStatus(context.Context, uuid.UUID) ([]learning.DomainWithStatus, error) {
	return []learning.DomainWithStatus{}, nil
}

func (f *fakeEngine) CountCompletedInsights(context.Context, uuid.UUID) (int64, error) {
	return 4, nil
}

func (f *fakeEngine) ListDomains(context.Context) ([]learning.DomainSummary, error) {
	return []learning.DomainSummary{{ID: uuid.New(), Name: "Chess"}}, nil
}

func (f *fakeEngine) GetAssessmentQuestions(context.Context, uuid.UUID) ([]learning.AssessmentQuestionView, error) {
	return nil, apierr.NotFound("domain_not_found", "")
}

type routerFixture struct {
	engine  *fakeEngine
	router  *gin.Engine
	metrics *observability.Metrics
	userID  uuid.UUID
	token   string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	f := &routerFixture{engine: &fakeEngine{}, metrics: observability.New(0), userID: uuid.New()}
	f.router = NewRouter(RouterConfig{
		Log:             log,
		Metrics:         f.metrics,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, httpMW.NewTokenVerifier(testSecret, "")),
		LearningHandler: httpH.NewLearningHandler(log, f.engine),
		DomainHandler:   httpH.NewDomainHandler(log, f.engine),
		HealthHandler:   httpH.NewHealthHandler(nil),
	})
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   f.userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	f.token = tok
	return f
}

func (f *routerFixture) do(method, path, body string, auth bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

func TestLearningRoutesRequireAuth(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(http.MethodGet, "/api/learning/domains/"+uuid.NewString()+"/next-insight", "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/domains", "", false)
	require.Equal(t, http.StatusOK, rec.Code, "catalog is public")

	rec = f.do(http.MethodGet, "/healthcheck", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestStartDomainRoute(t *testing.T) {
	f := newRouterFixture(t)
	domainID := uuid.New()
	qid := uuid.New()

	rec := f.do(http.MethodPost, "/api/learning/domains/"+domainID.String()+"/start",
		`{"assessment_answers":[{"question_id":"`+qid.String()+`","selected_answer":"B"}]}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, f.engine.started, 1)
	require.Equal(t, f.userID, f.engine.started[0].UserID)
	require.Equal(t, domainID, f.engine.started[0].DomainID)
	require.Equal(t, qid, f.engine.started[0].AssessmentAnswers[0].QuestionID)

	rec = f.do(http.MethodPost, "/api/learning/domains/"+domainID.String()+"/start", "", true)
	require.Equal(t, http.StatusCreated, rec.Code, "assessment answers are optional")

	rec = f.do(http.MethodPost, "/api/learning/domains/not-a-uuid/start", "", true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_domain_id", errorCode(t, rec))
}

func TestNextInsightRoute(t *testing.T) {
	f := newRouterFixture(t)
	path := "/api/learning/domains/" + uuid.NewString() + "/next-insight"

	f.engine.next = learning.NextInsightOutput{NoContent: true}
	rec := f.do(http.MethodGet, path, "", true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())

	f.engine.next = learning.NextInsightOutput{Insight: &learning.InsightView{ID: uuid.New(), Title: "Control the center"}}
	rec = f.do(http.MethodGet, path, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Control the center")
}

func TestSubmitAnswerRoute(t *testing.T) {
	f := newRouterFixture(t)
	qid := uuid.New()

	rec := f.do(http.MethodPost, "/api/learning/answers", `{"question_id":"`+qid.String()+`","selected_answer":"A","time_taken_ms":1500}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.engine.submitted, 1)
	require.EqualValues(t, 1500, *f.engine.submitted[0].TimeTakenMs)

	var out learning.SubmitAnswerOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.IsCorrect)
	require.Equal(t, "Correct!", out.Feedback)

	rec = f.do(http.MethodPost, "/api/learning/answers", `{"question_id":"nope","selected_answer":"A"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_question_id", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/learning/answers", `{`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEngineErrorsMapToStatus(t *testing.T) {
	f := newRouterFixture(t)
	domain := "/api/learning/domains/" + uuid.NewString()

	f.engine.reviewErr = apierr.PreconditionFailed("review_not_available", "completed 1 of 6")
	rec := f.do(http.MethodGet, domain+"/review", "", true)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "review_not_available", errorCode(t, rec))

	rec = f.do(http.MethodGet, domain+"/overview", "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "progress_not_found", errorCode(t, rec))

	rec = f.do(http.MethodPost, domain+"/topic", `{"topic_index":3}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_topic_index", errorCode(t, rec))

	rec = f.do(http.MethodPost, domain+"/topic", `{}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/domains/"+uuid.NewString()+"/assessment", "", false)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "domain_not_found", errorCode(t, rec))
}

func TestCompleteReviewRoute(t *testing.T) {
	f := newRouterFixture(t)
	domain := "/api/learning/domains/" + uuid.NewString()

	rec := f.do(http.MethodPost, domain+"/review/complete", `{"satisfactory":false}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.engine.completed, 1)
	require.False(t, f.engine.completed[0].Satisfactory)

	rec = f.do(http.MethodPost, domain+"/review/complete", `{}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, f.engine.completed, 1)

	rec = f.do(http.MethodGet, "/api/learning/insights/completed-count", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"completed_insights":4}`, rec.Body.String())

	var buf strings.Builder
	require.NoError(t, f.metrics.WritePrometheus(&buf))
	require.Contains(t, buf.String(), `route="/api/learning/insights/completed-count"`)
}
