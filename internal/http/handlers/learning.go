package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/insightpath-backend/internal/http/response"
	"github.com/yungbote/insightpath-backend/internal/modules/learning"
	"github.com/yungbote/insightpath-backend/internal/platform/ctxutil"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

// LearningEngine is the progression engine surface the learner API needs.
type LearningEngine interface {
	StartDomain(ctx context.Context, in learning.StartDomainInput) (learning.StartDomainOutput, error)
	SelectTopic(ctx context.Context, in learning.SelectTopicInput) (learning.SelectTopicOutput, error)
	GetDomainOverview(ctx context.Context, userID, domainID uuid.UUID) (learning.DomainOverview, error)
	GetNextInsight(ctx context.Context, userID, domainID uuid.UUID) (learning.NextInsightOutput, error)
	SubmitAnswer(ctx context.Context, in learning.SubmitAnswerInput) (learning.SubmitAnswerOutput, error)
	GetTopicProgress(ctx context.Context, userID, domainID uuid.UUID) (learning.TopicProgressOutput, error)
	GetReview(ctx context.Context, userID, domainID uuid.UUID) (learning.ReviewOutput, error)
	CompleteReviewAndAdvance(ctx context.Context, in learning.CompleteReviewInput) (learning.CompleteReviewOutput, error)
	ListDomainsWithStatus(ctx context.Context, userID uuid.UUID) ([]learning.DomainWithStatus, error)
	CountCompletedInsights(ctx context.Context, userID uuid.UUID) (int64, error)
}

var _ LearningEngine = learning.Usecases{}

type LearningHandler struct {
	log    *logger.Logger
	engine LearningEngine
}

func NewLearningHandler(log *logger.Logger, engine LearningEngine) *LearningHandler {
	return &LearningHandler{log: log.With("handler", "LearningHandler"), engine: engine}
}

// POST /api/learning/domains/:id/start
// body: { "assessment_answers": [{ "question_id": "...", "selected_answer": "..." }] }
func (h *LearningHandler) StartDomain(c *gin.Context) {
	userID, domainID, ok := learnerAndDomain(c)
	if !ok {
		return
	}
	var req struct {
		AssessmentAnswers []learning.AssessmentAnswerInput `json:"assessment_answers"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	out, err := h.engine.StartDomain(c.Request.Context(), learning.StartDomainInput{
		UserID:            userID,
		DomainID:          domainID,
		AssessmentAnswers: req.AssessmentAnswers,
	})
	if err != nil {
		response.RespondAPIError(c, err, "start_domain_failed")
		return
	}
	status := http.StatusCreated
	if out.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, out)
}

// POST /api/learning/domains/:id/topic
// body: { "topic_index": 2 }
func (h *LearningHandler) SelectTopic(c *gin.Context) {
	userID, domainID, ok := learnerAndDomain(c)
	if !ok {
		return
	}
	var req struct {
		TopicIndex *int `json:"topic_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TopicIndex == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissingField("topic_index"))
		return
	}
	out, err := h.engine.SelectTopic(c.Request.Context(), learning.SelectTopicInput{
		UserID:     userID,
		DomainID:   domainID,
		TopicIndex: *req.TopicIndex,
	})
	if err != nil {
		response.RespondAPIError(c, err, "select_topic_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/learning/domains/:id/overview
func (h *LearningHandler) GetDomainOverview(c *gin.Context) {
	userID, domainID, ok := learnerAndDomain(c)
	if !ok {
		return
	}
	out, err := h.engine.GetDomainOverview(c.Request.Context(), userID, domainID)
	if err != nil {
		response.RespondAPIError(c, err, "get_domain_overview_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/learning/domains/:id/next-insight
// 204 once every insight of the current level is completed.
func (h *LearningHandler) GetNextInsight(c *gin.Context) {
	userID, domainID, ok := learnerAndDomain(c)
	if !ok {
		return
	}
	out, err := h.engine.GetNextInsight(c.Request.Context(), userID, domainID)
	if err != nil {
		response.RespondAPIError(c, err, "get_next_insight_failed")
		return
	}
	if out.NoContent || out.Insight == nil {
		response.RespondNoContent(c)
		return
	}
	response.RespondOK(c, gin.H{"insight": out.Insight})
}

// POST /api/learning/answers
// body: { "question_id": "...", "selected_answer": "...", "time_taken_ms": 1200 }
func (h *LearningHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := learner(c)
	if !ok {
		return
	}
	var req struct {
		QuestionID     string `json:"question_id"`
		SelectedAnswer string `json:"selected_answer"`
		TimeTakenMs    *int64 `json:"time_taken_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	questionID, err := uuid.Parse(strings.TrimSpace(req.QuestionID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_question_id", err)
		return
	}
	out, err := h.engine.SubmitAnswer(c.Request.Context(), learning.SubmitAnswerInput{
		UserID:         userID,
		QuestionID:     questionID,
		SelectedAnswer: req.SelectedAnswer,
		TimeTakenMs:    req.TimeTakenMs,
	})
	if err != nil {
		response.RespondAPIError(c, err, "submit_answer_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/learning/domains/:id/progress
func (h *LearningHandler) GetTopicProgress(c *gin.Context) {
	userID, domainID, ok := learnerAndDomain(c)
	if !ok {
		return
	}
	out, err := h.engine.GetTopicProgress(c.Request.Context(), userID, domainID)
	if err != nil {
		response.RespondAPIError(c, err, "get_topic_progress_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/learning/domains/:id/review
func (h *LearningHandler) GetReview(c *gin.Context) {
	userID, domainID, ok := learnerAndDomain(c)
	if !ok {
		return
	}
	out, err := h.engine.GetReview(c.Request.Context(), userID, domainID)
	if err != nil {
		response.RespondAPIError(c, err, "get_review_failed")
		return
	}
	response.RespondOK(c, out)
}

// POST /api/learning/domains/:id/review/complete
// body: { "satisfactory": true }
func (h *LearningHandler) CompleteReview(c *gin.Context) {
	userID, domainID, ok := learnerAndDomain(c)
	if !ok {
		return
	}
	var req struct {
		Satisfactory *bool `json:"satisfactory"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Satisfactory == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissingField("satisfactory"))
		return
	}
	out, err := h.engine.CompleteReviewAndAdvance(c.Request.Context(), learning.CompleteReviewInput{
		UserID:       userID,
		DomainID:     domainID,
		Satisfactory: *req.Satisfactory,
	})
	if err != nil {
		response.RespondAPIError(c, err, "complete_review_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/learning/domains
func (h *LearningHandler) ListDomainsWithStatus(c *gin.Context) {
	userID, ok := learner(c)
	if !ok {
		return
	}
	out, err := h.engine.ListDomainsWithStatus(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err, "list_domains_failed")
		return
	}
	response.RespondOK(c, gin.H{"domains": out})
}

// GET /api/learning/insights/completed-count
func (h *LearningHandler) CountCompletedInsights(c *gin.Context) {
	userID, ok := learner(c)
	if !ok {
		return
	}
	n, err := h.engine.CountCompletedInsights(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err, "count_completed_insights_failed")
		return
	}
	response.RespondOK(c, gin.H{"completed_insights": n})
}

func learner(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func learnerAndDomain(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := learner(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	domainID, ok := pathUUID(c, "id", "invalid_domain_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, domainID, true
}
