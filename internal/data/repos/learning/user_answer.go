package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type UserAnswerRepo interface {
	Create(dbc dbctx.Context, rows []*types.UserAnswer) ([]*types.UserAnswer, error)
	ListByUserAndQuestionIDs(dbc dbctx.Context, userID uuid.UUID, questionIDs []uuid.UUID) ([]*types.UserAnswer, error)
	// CountDistinctAnsweredQuestions counts how many of questionIDs the user has answered at least once.
	CountDistinctAnsweredQuestions(dbc dbctx.Context, userID uuid.UUID, questionIDs []uuid.UUID) (int64, error)
}

type userAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAnswerRepo(db *gorm.DB, baseLog *logger.Logger) UserAnswerRepo {
	return &userAnswerRepo{db: db, log: baseLog.With("repo", "UserAnswerRepo")}
}

func (r *userAnswerRepo) Create(dbc dbctx.Context, rows []*types.UserAnswer) ([]*types.UserAnswer, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.UserAnswer{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userAnswerRepo) ListByUserAndQuestionIDs(dbc dbctx.Context, userID uuid.UUID, questionIDs []uuid.UUID) ([]*types.UserAnswer, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserAnswer
	if userID == uuid.Nil || len(questionIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Order("answered_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userAnswerRepo) CountDistinctAnsweredQuestions(dbc dbctx.Context, userID uuid.UUID, questionIDs []uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || len(questionIDs) == 0 {
		return 0, nil
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.UserAnswer{}).
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Distinct("question_id").
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
