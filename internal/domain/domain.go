package domain

import (
	"github.com/yungbote/insightpath-backend/internal/domain/learning"
	"github.com/yungbote/insightpath-backend/internal/domain/user"
)

type User = user.User

type Domain = learning.Domain
type AssessmentQuestion = learning.AssessmentQuestion
type UserDomainProgress = learning.UserDomainProgress
type LearningPath = learning.LearningPath
type TopicProgress = learning.TopicProgress
type LevelState = learning.LevelState
type Insight = learning.Insight
type Question = learning.Question
type QuestionType = learning.QuestionType
type UserAnswer = learning.UserAnswer
type AICallLog = learning.AICallLog

const (
	LevelActive         = learning.LevelActive
	LevelReviewEligible = learning.LevelReviewEligible
	LevelAdvanced       = learning.LevelAdvanced
	LevelReinforced     = learning.LevelReinforced

	QuestionMultipleChoice = learning.QuestionMultipleChoice
	QuestionTrueFalse      = learning.QuestionTrueFalse

	DefaultRequiredInsights = learning.DefaultRequiredInsights
)

var (
	EncodeJSON        = learning.EncodeJSON
	ParseQuestionType = learning.ParseQuestionType
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&user.User{},
		&learning.Domain{},
		&learning.AssessmentQuestion{},
		&learning.UserDomainProgress{},
		&learning.TopicProgress{},
		&learning.Insight{},
		&learning.Question{},
		&learning.UserAnswer{},
		&learning.AICallLog{},
	}
}
