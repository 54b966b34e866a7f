package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/insightpath-backend/internal/data/repos"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type Repos struct {
	User repos.UserRepo

	Domain             repos.DomainRepo
	AssessmentQuestion repos.AssessmentQuestionRepo

	UserDomainProgress repos.UserDomainProgressRepo
	TopicProgress      repos.TopicProgressRepo
	Insight            repos.InsightRepo
	Question           repos.QuestionRepo
	UserAnswer         repos.UserAnswerRepo

	AICallLog repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:               repos.NewUserRepo(db, log),
		Domain:             repos.NewDomainRepo(db, log),
		AssessmentQuestion: repos.NewAssessmentQuestionRepo(db, log),
		UserDomainProgress: repos.NewUserDomainProgressRepo(db, log),
		TopicProgress:      repos.NewTopicProgressRepo(db, log),
		Insight:            repos.NewInsightRepo(db, log),
		Question:           repos.NewQuestionRepo(db, log),
		UserAnswer:         repos.NewUserAnswerRepo(db, log),
		AICallLog:          repos.NewAICallLogRepo(db, log),
	}
}
