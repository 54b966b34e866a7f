package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type AssessmentQuestionRepo interface {
	Create(dbc dbctx.Context, rows []*types.AssessmentQuestion) ([]*types.AssessmentQuestion, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.AssessmentQuestion, error)
	ListByDomainID(dbc dbctx.Context, domainID uuid.UUID) ([]*types.AssessmentQuestion, error)
}

type assessmentQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentQuestionRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentQuestionRepo {
	return &assessmentQuestionRepo{db: db, log: baseLog.With("repo", "AssessmentQuestionRepo")}
}

func (r *assessmentQuestionRepo) Create(dbc dbctx.Context, rows []*types.AssessmentQuestion) ([]*types.AssessmentQuestion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.AssessmentQuestion{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assessmentQuestionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.AssessmentQuestion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.AssessmentQuestion
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentQuestionRepo) ListByDomainID(dbc dbctx.Context, domainID uuid.UUID) ([]*types.AssessmentQuestion, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.AssessmentQuestion
	if domainID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("domain_id = ?", domainID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
