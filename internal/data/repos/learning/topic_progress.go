package learning

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type TopicProgressRepo interface {
	// GetOrCreate returns the (progress, topic, level) row, inserting it with defaults when absent.
	// Concurrent callers converge on a single row.
	GetOrCreate(dbc dbctx.Context, progressID uuid.UUID, topicName string, level int) (*types.TopicProgress, bool, error)

	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.TopicProgress, error)
	// GetCurrent returns the highest-level row for a topic, or nil when the topic was never opened.
	GetCurrent(dbc dbctx.Context, progressID uuid.UUID, topicName string) (*types.TopicProgress, error)
	MaxLevel(dbc dbctx.Context, progressID uuid.UUID, topicName string) (int, error)
	ListByProgress(dbc dbctx.Context, progressID uuid.UUID) ([]*types.TopicProgress, error)
	ListByTopic(dbc dbctx.Context, progressID uuid.UUID, topicName string) ([]*types.TopicProgress, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	IncrementCompleted(dbc dbctx.Context, id uuid.UUID) error

	SumCompletedByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type topicProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicProgressRepo(db *gorm.DB, baseLog *logger.Logger) TopicProgressRepo {
	return &topicProgressRepo{db: db, log: baseLog.With("repo", "TopicProgressRepo")}
}

func (r *topicProgressRepo) GetOrCreate(dbc dbctx.Context, progressID uuid.UUID, topicName string, level int) (*types.TopicProgress, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	topicName = strings.TrimSpace(topicName)
	if progressID == uuid.Nil || topicName == "" || level < 1 {
		return nil, false, nil
	}
	row := &types.TopicProgress{
		UserDomainProgressID:               progressID,
		TopicName:                          topicName,
		Level:                              level,
		RequiredInsightsForLevelCompletion: types.DefaultRequiredInsights,
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_domain_progress_id"},
				{Name: "topic_name"},
				{Name: "level"},
			},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	stored, err := r.getByKey(forUpdate(t.WithContext(dbc.Ctx)), progressID, topicName, level)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected > 0, nil
}

func (r *topicProgressRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.TopicProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return r.getByID(forUpdate(t.WithContext(dbc.Ctx)), id)
}

func (r *topicProgressRepo) getByID(q *gorm.DB, id uuid.UUID) (*types.TopicProgress, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.TopicProgress
	if err := q.Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *topicProgressRepo) getByKey(q *gorm.DB, progressID uuid.UUID, topicName string, level int) (*types.TopicProgress, error) {
	if progressID == uuid.Nil || topicName == "" {
		return nil, nil
	}
	var out []*types.TopicProgress
	if err := q.
		Where("user_domain_progress_id = ? AND topic_name = ? AND level = ?", progressID, topicName, level).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *topicProgressRepo) GetCurrent(dbc dbctx.Context, progressID uuid.UUID, topicName string) (*types.TopicProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	topicName = strings.TrimSpace(topicName)
	if progressID == uuid.Nil || topicName == "" {
		return nil, nil
	}
	var out []*types.TopicProgress
	if err := t.WithContext(dbc.Ctx).
		Where("user_domain_progress_id = ? AND topic_name = ?", progressID, topicName).
		Order("level DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *topicProgressRepo) MaxLevel(dbc dbctx.Context, progressID uuid.UUID, topicName string) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var max *int
	if err := t.WithContext(dbc.Ctx).
		Model(&types.TopicProgress{}).
		Where("user_domain_progress_id = ? AND topic_name = ?", progressID, strings.TrimSpace(topicName)).
		Select("MAX(level)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *topicProgressRepo) ListByProgress(dbc dbctx.Context, progressID uuid.UUID) ([]*types.TopicProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.TopicProgress
	if progressID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_domain_progress_id = ?", progressID).
		Order("topic_name ASC, level ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicProgressRepo) ListByTopic(dbc dbctx.Context, progressID uuid.UUID, topicName string) ([]*types.TopicProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.TopicProgress
	if progressID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_domain_progress_id = ? AND topic_name = ?", progressID, strings.TrimSpace(topicName)).
		Order("level ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.TopicProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *topicProgressRepo) IncrementCompleted(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.TopicProgress{}).
		Where("id = ?", id).
		UpdateColumn("completed_insights_count", gorm.Expr("completed_insights_count + ?", 1)).Error
}

// SumCompletedByUser totals completed insights across every domain the user has started.
func (r *topicProgressRepo) SumCompletedByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	var total int64
	if err := t.WithContext(dbc.Ctx).
		Table("topic_progress AS tp").
		Joins("JOIN user_domain_progress AS udp ON udp.id = tp.user_domain_progress_id").
		Where("udp.user_id = ?", userID).
		Select("COALESCE(SUM(tp.completed_insights_count), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
