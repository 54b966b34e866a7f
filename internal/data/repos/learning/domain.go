package learning

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type DomainRepo interface {
	Create(dbc dbctx.Context, rows []*types.Domain) ([]*types.Domain, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Domain, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Domain, error)
	GetByName(dbc dbctx.Context, name string) (*types.Domain, error)

	List(dbc dbctx.Context) ([]*types.Domain, error)
}

type domainRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDomainRepo(db *gorm.DB, baseLog *logger.Logger) DomainRepo {
	return &domainRepo{db: db, log: baseLog.With("repo", "DomainRepo")}
}

// Create inserts domains together with any attached assessment questions.
func (r *domainRepo) Create(dbc dbctx.Context, rows []*types.Domain) ([]*types.Domain, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Domain{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *domainRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Domain, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *domainRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Domain, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Domain
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *domainRepo) GetByName(dbc dbctx.Context, name string) (*types.Domain, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var out []*types.Domain
	if err := t.WithContext(dbc.Ctx).Where("name = ?", name).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *domainRepo) List(dbc dbctx.Context) ([]*types.Domain, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Domain
	if err := t.WithContext(dbc.Ctx).
		Order("category ASC, name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
