package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRequiredInsights is the completion threshold of a freshly created level, before the
// collaborator has produced its insights.
const DefaultRequiredInsights = 6

// LevelState is the explicit review/advancement state of one (topic, level).
type LevelState string

const (
	LevelActive         LevelState = "active"
	LevelReviewEligible LevelState = "review_eligible"
	LevelAdvanced       LevelState = "advanced"
	LevelReinforced     LevelState = "reinforced"
)

// TopicProgress tracks one (progress, topic, level) triple.
type TopicProgress struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserDomainProgressID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_topic_progress_level;index" json:"user_domain_progress_id"`
	TopicName            string    `gorm:"column:topic_name;not null;uniqueIndex:idx_topic_progress_level" json:"topic_name"`
	Level                int       `gorm:"column:level;not null;uniqueIndex:idx_topic_progress_level" json:"level"`

	InsightsGenerated                  bool `gorm:"column:insights_generated;not null;default:false" json:"insights_generated"`
	CompletedInsightsCount             int  `gorm:"column:completed_insights_count;not null;default:0" json:"completed_insights_count"`
	RequiredInsightsForLevelCompletion int  `gorm:"column:required_insights_for_level_completion;not null;default:0" json:"required_insights_for_level_completion"`
	// Number of unsatisfactory reviews that regenerated this level.
	ReinforcementCount int `gorm:"column:reinforcement_count;not null;default:0" json:"reinforcement_count"`

	StartedAt      time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastReviewedAt *time.Time `gorm:"column:last_reviewed_at" json:"last_reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (TopicProgress) TableName() string { return "topic_progress" }

func (tp *TopicProgress) BeforeCreate(tx *gorm.DB) error {
	if tp.ID == uuid.Nil {
		tp.ID = uuid.New()
	}
	if tp.StartedAt.IsZero() {
		tp.StartedAt = time.Now().UTC()
	}
	return nil
}

// State derives the level state from (completed, required, completedAt, reinforcementCount).
func (tp *TopicProgress) State() LevelState {
	switch {
	case tp == nil:
		return LevelActive
	case tp.CompletedAt != nil:
		return LevelAdvanced
	case tp.CompletedInsightsCount >= tp.RequiredInsightsForLevelCompletion:
		return LevelReviewEligible
	case tp.ReinforcementCount > 0:
		return LevelReinforced
	default:
		return LevelActive
	}
}

// ReviewAvailable is true once every required insight is completed.
func (tp *TopicProgress) ReviewAvailable() bool {
	s := tp.State()
	return s == LevelReviewEligible || s == LevelAdvanced
}
