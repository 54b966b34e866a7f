package learning

import (
	"gorm.io/gorm"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type AICallLogRepo interface {
	Create(dbc dbctx.Context, rows []*types.AICallLog) ([]*types.AICallLog, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return &aiCallLogRepo{db: db, log: baseLog.With("repo", "AICallLogRepo")}
}

func (r *aiCallLogRepo) Create(dbc dbctx.Context, rows []*types.AICallLog) ([]*types.AICallLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.AICallLog{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
