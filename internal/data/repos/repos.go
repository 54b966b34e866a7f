package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/insightpath-backend/internal/data/repos/learning"
	"github.com/yungbote/insightpath-backend/internal/data/repos/user"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type DomainRepo = learning.DomainRepo
type AssessmentQuestionRepo = learning.AssessmentQuestionRepo

type UserDomainProgressRepo = learning.UserDomainProgressRepo
type TopicProgressRepo = learning.TopicProgressRepo
type InsightRepo = learning.InsightRepo
type QuestionRepo = learning.QuestionRepo
type UserAnswerRepo = learning.UserAnswerRepo

type AICallLogRepo = learning.AICallLogRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewDomainRepo(db *gorm.DB, baseLog *logger.Logger) DomainRepo {
	return learning.NewDomainRepo(db, baseLog)
}
func NewAssessmentQuestionRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentQuestionRepo {
	return learning.NewAssessmentQuestionRepo(db, baseLog)
}

func NewUserDomainProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserDomainProgressRepo {
	return learning.NewUserDomainProgressRepo(db, baseLog)
}
func NewTopicProgressRepo(db *gorm.DB, baseLog *logger.Logger) TopicProgressRepo {
	return learning.NewTopicProgressRepo(db, baseLog)
}
func NewInsightRepo(db *gorm.DB, baseLog *logger.Logger) InsightRepo {
	return learning.NewInsightRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return learning.NewQuestionRepo(db, baseLog)
}
func NewUserAnswerRepo(db *gorm.DB, baseLog *logger.Logger) UserAnswerRepo {
	return learning.NewUserAnswerRepo(db, baseLog)
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return learning.NewAICallLogRepo(db, baseLog)
}
