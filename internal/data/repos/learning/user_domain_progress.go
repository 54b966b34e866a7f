package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type UserDomainProgressRepo interface {
	// CreateIfAbsent inserts row unless (user_id, domain_id) already exists and returns the stored
	// row. created reports whether this call inserted it.
	CreateIfAbsent(dbc dbctx.Context, row *types.UserDomainProgress) (stored *types.UserDomainProgress, created bool, err error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserDomainProgress, error)
	GetByUserAndDomain(dbc dbctx.Context, userID, domainID uuid.UUID) (*types.UserDomainProgress, error)
	GetByUserAndDomainForUpdate(dbc dbctx.Context, userID, domainID uuid.UUID) (*types.UserDomainProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserDomainProgress, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type userDomainProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserDomainProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserDomainProgressRepo {
	return &userDomainProgressRepo{db: db, log: baseLog.With("repo", "UserDomainProgressRepo")}
}

func (r *userDomainProgressRepo) CreateIfAbsent(dbc dbctx.Context, row *types.UserDomainProgress) (*types.UserDomainProgress, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.DomainID == uuid.Nil {
		return nil, false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "domain_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	stored, err := r.GetByUserAndDomainForUpdate(dbc, row.UserID, row.DomainID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected > 0, nil
}

func (r *userDomainProgressRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserDomainProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.UserDomainProgress
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *userDomainProgressRepo) GetByUserAndDomain(dbc dbctx.Context, userID, domainID uuid.UUID) (*types.UserDomainProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return r.findOne(t.WithContext(dbc.Ctx), userID, domainID)
}

func (r *userDomainProgressRepo) GetByUserAndDomainForUpdate(dbc dbctx.Context, userID, domainID uuid.UUID) (*types.UserDomainProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return r.findOne(forUpdate(t.WithContext(dbc.Ctx)), userID, domainID)
}

func (r *userDomainProgressRepo) findOne(q *gorm.DB, userID, domainID uuid.UUID) (*types.UserDomainProgress, error) {
	if userID == uuid.Nil || domainID == uuid.Nil {
		return nil, nil
	}
	var out []*types.UserDomainProgress
	if err := q.Where("user_id = ? AND domain_id = ?", userID, domainID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *userDomainProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserDomainProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserDomainProgress
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userDomainProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.UserDomainProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}
