package learning

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Domain is a catalog entry. Rows are written by the catalog seeder only.
type Domain struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Category    string    `gorm:"column:category;index" json:"category"`

	AssessmentQuestions []*AssessmentQuestion `gorm:"foreignKey:DomainID;constraint:OnDelete:CASCADE" json:"assessment_questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Domain) TableName() string { return "domain" }

func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// AssessmentQuestion is one of the fixed questions asked when a learner starts a domain.
type AssessmentQuestion struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DomainID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"domain_id"`
	Position     int            `gorm:"column:position;not null;default:0" json:"position"`
	QuestionText string         `gorm:"column:question_text;type:text;not null" json:"question_text"`
	Options      datatypes.JSON `gorm:"column:options;type:jsonb" json:"options"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (AssessmentQuestion) TableName() string { return "assessment_question" }

func (q *AssessmentQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (q *AssessmentQuestion) OptionList() []string {
	return decodeStrings(q.Options)
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// EncodeJSON marshals v into a JSON column value; nil encodes as "null".
func EncodeJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}
