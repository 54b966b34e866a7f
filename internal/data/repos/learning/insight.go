package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type InsightRepo interface {
	// Create inserts insights together with their questions.
	Create(dbc dbctx.Context, rows []*types.Insight) ([]*types.Insight, error)

	GetByIDWithQuestions(dbc dbctx.Context, id uuid.UUID) (*types.Insight, error)
	ListByTopicProgress(dbc dbctx.Context, topicProgressID uuid.UUID) ([]*types.Insight, error)
	CountByTopicProgress(dbc dbctx.Context, topicProgressID uuid.UUID) (int64, error)

	// NextUncompleted returns the next insight to serve: never-shown first, then least recently
	// shown, then highest relevance, then generation order.
	NextUncompleted(dbc dbctx.Context, topicProgressID uuid.UUID) (*types.Insight, error)

	MarkServed(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	// MarkCompleted flips completed false->true and reports whether this call did the flip.
	MarkCompleted(dbc dbctx.Context, id uuid.UUID) (bool, error)

	// DeleteByTopicProgress removes insights, their questions, and answers to those questions.
	DeleteByTopicProgress(dbc dbctx.Context, topicProgressID uuid.UUID) error
}

type insightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightRepo(db *gorm.DB, baseLog *logger.Logger) InsightRepo {
	return &insightRepo{db: db, log: baseLog.With("repo", "InsightRepo")}
}

func (r *insightRepo) Create(dbc dbctx.Context, rows []*types.Insight) ([]*types.Insight, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Insight{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *insightRepo) GetByIDWithQuestions(dbc dbctx.Context, id uuid.UUID) (*types.Insight, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return r.first(t.WithContext(dbc.Ctx).Preload("Questions", orderByPosition), id)
}

func (r *insightRepo) first(q *gorm.DB, id uuid.UUID) (*types.Insight, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Insight
	if err := q.Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *insightRepo) ListByTopicProgress(dbc dbctx.Context, topicProgressID uuid.UUID) ([]*types.Insight, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Insight
	if topicProgressID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Preload("Questions", orderByPosition).
		Where("topic_progress_id = ?", topicProgressID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *insightRepo) CountByTopicProgress(dbc dbctx.Context, topicProgressID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Insight{}).
		Where("topic_progress_id = ?", topicProgressID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *insightRepo) NextUncompleted(dbc dbctx.Context, topicProgressID uuid.UUID) (*types.Insight, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if topicProgressID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Insight
	// "IS NOT NULL" sorts false before true on both postgres and sqlite, so unseen rows lead.
	if err := t.WithContext(dbc.Ctx).
		Preload("Questions", orderByPosition).
		Where("topic_progress_id = ? AND completed = ?", topicProgressID, false).
		Order("last_accessed_at IS NOT NULL ASC").
		Order("last_accessed_at ASC").
		Order("relevance_score DESC").
		Order("position ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *insightRepo) MarkServed(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Insight{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"last_accessed_at": at,
			"times_shown":      gorm.Expr("times_shown + ?", 1),
		}).Error
}

func (r *insightRepo) MarkCompleted(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Insight{}).
		Where("id = ? AND completed = ?", id, false).
		UpdateColumn("completed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *insightRepo) DeleteByTopicProgress(dbc dbctx.Context, topicProgressID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if topicProgressID == uuid.Nil {
		return nil
	}
	q := t.WithContext(dbc.Ctx)
	insightIDs := q.Model(&types.Insight{}).Select("id").Where("topic_progress_id = ?", topicProgressID)
	questionIDs := q.Model(&types.Question{}).Select("id").Where("insight_id IN (?)", insightIDs)

	if err := q.Where("question_id IN (?)", questionIDs).Delete(&types.UserAnswer{}).Error; err != nil {
		return err
	}
	if err := q.Where("insight_id IN (?)", insightIDs).Delete(&types.Question{}).Error; err != nil {
		return err
	}
	return q.Where("topic_progress_id = ?", topicProgressID).Delete(&types.Insight{}).Error
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
