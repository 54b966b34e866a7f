package learning

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningPath is the ordered topic list produced once per progress record.
type LearningPath struct {
	DomainName string   `json:"domainName"`
	Topics     []string `json:"topics"`
}

// UserDomainProgress is the root of one learner's journey through one domain.
// (user_id, domain_id) is unique.
type UserDomainProgress struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_domain_progress" json:"user_id"`
	DomainID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_domain_progress;index" json:"domain_id"`

	LearningPath      datatypes.JSON `gorm:"column:learning_path;type:jsonb" json:"learning_path"`
	AssessmentAnswers datatypes.JSON `gorm:"column:assessment_answers;type:jsonb" json:"assessment_answers"`
	CurrentTopicIndex int            `gorm:"column:current_topic_index;not null;default:0" json:"current_topic_index"`

	StartedAt   time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (UserDomainProgress) TableName() string { return "user_domain_progress" }

func (p *UserDomainProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now().UTC()
	}
	return nil
}

// HasLearningPath reports whether a non-empty path has been stored.
func (p *UserDomainProgress) HasLearningPath() bool {
	if p == nil || len(p.LearningPath) == 0 || string(p.LearningPath) == "null" {
		return false
	}
	lp, err := p.Path()
	return err == nil && len(lp.Topics) > 0
}

// Path decodes the stored learning path. A corrupt column is returned as an error.
func (p *UserDomainProgress) Path() (LearningPath, error) {
	var lp LearningPath
	if p == nil || len(p.LearningPath) == 0 || string(p.LearningPath) == "null" {
		return lp, nil
	}
	if err := json.Unmarshal(p.LearningPath, &lp); err != nil {
		return lp, fmt.Errorf("decode learning path for progress %s: %w", p.ID, err)
	}
	return lp, nil
}

// CurrentTopic returns the topic at CurrentTopicIndex.
func (p *UserDomainProgress) CurrentTopic() (string, bool, error) {
	lp, err := p.Path()
	if err != nil {
		return "", false, err
	}
	if p.CurrentTopicIndex < 0 || p.CurrentTopicIndex >= len(lp.Topics) {
		return "", false, nil
	}
	return lp.Topics[p.CurrentTopicIndex], true, nil
}
