// Package aigateway is the progression engine's only view of the AI collaborator.
//
// Three typed operations cover the collaborator contract. Adapters exist per transport (HTTP JSON,
// in-process LLM, scripted mock); decorators add call logging and the timeout/fallback policy so
// callers only ever see a success value or a deterministic fallback value.
package aigateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Call names, used as metric labels, span names, and ai_call_log.call_type.
const (
	CallLearningPath = "learning_path"
	CallInsights     = "insights"
	CallReview       = "review"
)

// FallbackTopicCount is the number of synthetic topics in a fallback learning path.
const FallbackTopicCount = 10

// Fallback review texts. Callers match on FallbackReviewSummary to detect degraded mode.
const (
	FallbackReviewSummary  = "A review summary could not be generated at this time. Please try again later."
	FallbackReviewStrength = "Persistence"
	FallbackReviewWeakness = "Technical difficulties with AI review generation."
)

type Gateway interface {
	GenerateLearningPath(ctx context.Context, req LearningPathRequest) (*LearningPathResponse, error)
	GenerateInsights(ctx context.Context, req InsightsRequest) ([]InsightDetail, error)
	GenerateReview(ctx context.Context, req ReviewRequest) (*ReviewResponse, error)
	// Name identifies the transport/model in logs and the call log.
	Name() string
}

// AssessmentAnswer is a resolved answer to one of a domain's fixed assessment questions.
type AssessmentAnswer struct {
	QuestionID     uuid.UUID `json:"questionId"`
	QuestionText   string    `json:"questionText"`
	Options        []string  `json:"options"`
	SelectedAnswer string    `json:"selectedAnswer"`
}

// UserAnswerDetail pairs one submission with the question it answered.
type UserAnswerDetail struct {
	QuestionID     uuid.UUID `json:"questionId"`
	QuestionText   string    `json:"questionText"`
	Options        []string  `json:"options,omitempty"`
	SelectedAnswer string    `json:"selectedAnswer"`
	CorrectAnswer  string    `json:"correctAnswer"`
	IsCorrect      bool      `json:"isCorrect"`
	TimeTakenMs    *int64    `json:"timeTakenMs,omitempty"`
}

type InsightPerformance struct {
	InsightID         uuid.UUID          `json:"insightId"`
	InsightTitle      string             `json:"insightTitle"`
	QuestionsAnswered []UserAnswerDetail `json:"questionsAnswered"`
	TimesShown        int                `json:"timesShown"`
}

// TopicPerformance is the performance snapshot handed to the collaborator so new content can
// adapt to earlier mistakes. A zero value means "no history".
type TopicPerformance struct {
	UserID              uuid.UUID            `json:"userId"`
	DomainName          string               `json:"domainName,omitempty"`
	TopicName           string               `json:"topicName,omitempty"`
	CurrentLevel        int                  `json:"currentLevel,omitempty"`
	AssessmentAnswers   []AssessmentAnswer   `json:"assessmentAnswers"`
	InsightsPerformance []InsightPerformance `json:"insightsPerformance"`
}

// Empty reports whether the snapshot carries no answers at all.
func (p *TopicPerformance) Empty() bool {
	return p == nil || (len(p.AssessmentAnswers) == 0 && len(p.InsightsPerformance) == 0)
}

type LearningPathRequest struct {
	DomainName  string            `json:"domainName"`
	UserID      uuid.UUID         `json:"userId"`
	Performance *TopicPerformance `json:"userTopicPerformanceData,omitempty"`
}

type LearningPathResponse struct {
	DomainName string   `json:"domainName"`
	Topics     []string `json:"topics"`
	// Fallback is set when the topics were synthesized locally.
	Fallback bool `json:"-"`
}

type InsightsRequest struct {
	DomainName  string            `json:"domainName"`
	TopicName   string            `json:"topicName"`
	Level       int               `json:"level"`
	UserID      uuid.UUID         `json:"userId"`
	Performance *TopicPerformance `json:"userTopicPerformanceData,omitempty"`
	// TopicProgressID is not sent on the wire; the call log uses it as context.
	TopicProgressID uuid.UUID `json:"-"`
}

type QuestionDetail struct {
	QuestionType    string            `json:"questionType"`
	QuestionText    string            `json:"questionText"`
	Options         []string          `json:"options"`
	CorrectAnswer   string            `json:"correctAnswer"`
	AnswerFeedbacks map[string]string `json:"answerFeedbacks,omitempty"`
}

type InsightDetail struct {
	Title       string           `json:"title"`
	Explanation string           `json:"explanation"`
	AIMetadata  map[string]any   `json:"aiMetadata,omitempty"`
	Questions   []QuestionDetail `json:"questions"`
}

// ReviewPerformance is the aggregate payload for one (topic, level) review.
// Accuracy is a percentage in [0,100].
type ReviewPerformance struct {
	TopicName                string             `json:"topicName"`
	Level                    int                `json:"level"`
	UserID                   uuid.UUID          `json:"userId"`
	CompletedInsightsInLevel int                `json:"completedInsightsInLevel"`
	Accuracy                 float64            `json:"accuracy"`
	TotalQuestionsAnswered   int                `json:"totalQuestionsAnswered"`
	TotalCorrectAnswers      int                `json:"totalCorrectAnswers"`
	AnsweredQuestions        []UserAnswerDetail `json:"answeredQuestions"`
}

type ReviewRequest struct {
	UserID          uuid.UUID         `json:"userId"`
	TopicProgressID uuid.UUID         `json:"topicProgressId"`
	PerformanceData ReviewPerformance `json:"performanceData"`
}

// RevisionQuestion is a previously answered question offered again at review time.
type RevisionQuestion struct {
	QuestionID   uuid.UUID `json:"questionId"`
	QuestionType string    `json:"questionType"`
	QuestionText string    `json:"questionText"`
	Options      []string  `json:"options,omitempty"`
}

type ReviewResponse struct {
	Summary           string             `json:"summary"`
	Strengths         []string           `json:"strengths"`
	Weaknesses        []string           `json:"weaknesses"`
	RevisionQuestions []RevisionQuestion `json:"revisionQuestions"`
	Fallback          bool               `json:"-"`
}

// FallbackLearningPath returns "{domain} Topic 1".."{domain} Topic 10".
func FallbackLearningPath(domainName string) *LearningPathResponse {
	topics := make([]string, 0, FallbackTopicCount)
	for i := 1; i <= FallbackTopicCount; i++ {
		topics = append(topics, fmt.Sprintf("%s Topic %d", domainName, i))
	}
	return &LearningPathResponse{DomainName: domainName, Topics: topics, Fallback: true}
}

// FallbackInsights is the empty list; the level then needs zero insights for review.
func FallbackInsights() []InsightDetail {
	return []InsightDetail{}
}

func FallbackReview() *ReviewResponse {
	return &ReviewResponse{
		Summary:           FallbackReviewSummary,
		Strengths:         []string{FallbackReviewStrength},
		Weaknesses:        []string{FallbackReviewWeakness},
		RevisionQuestions: []RevisionQuestion{},
		Fallback:          true,
	}
}
