package learning

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
)

// ParseQuestionType normalizes collaborator output; anything unrecognized is multiple choice.
func ParseQuestionType(s string) QuestionType {
	switch strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case string(QuestionTrueFalse), "TRUEFALSE", "BOOLEAN":
		return QuestionTrueFalse
	default:
		return QuestionMultipleChoice
	}
}

// Insight is one generated micro-lesson owned by a TopicProgress.
type Insight struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TopicProgressID uuid.UUID      `gorm:"type:uuid;not null;index" json:"topic_progress_id"`
	Position        int            `gorm:"column:position;not null;default:0" json:"position"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Explanation     string         `gorm:"column:explanation;type:text" json:"explanation"`
	AIMetadata      datatypes.JSON `gorm:"column:ai_metadata;type:jsonb" json:"ai_metadata"`
	Completed       bool           `gorm:"column:completed;not null;default:false;index" json:"completed"`
	Level           int            `gorm:"column:level;not null" json:"level"`
	LastAccessedAt  *time.Time     `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`
	RelevanceScore  float64        `gorm:"column:relevance_score;not null;default:0" json:"relevance_score"`
	TimesShown      int            `gorm:"column:times_shown;not null;default:0" json:"times_shown"`

	Questions []*Question `gorm:"foreignKey:InsightID" json:"questions,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Insight) TableName() string { return "insight" }

func (i *Insight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Question belongs to exactly one Insight.
type Question struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	InsightID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"insight_id"`
	Position        int            `gorm:"column:position;not null;default:0" json:"position"`
	QuestionType    QuestionType   `gorm:"column:question_type;not null" json:"question_type"`
	QuestionText    string         `gorm:"column:question_text;type:text;not null" json:"question_text"`
	Options         datatypes.JSON `gorm:"column:options;type:jsonb" json:"options"`
	CorrectAnswer   string         `gorm:"column:correct_answer;not null" json:"correct_answer"`
	AnswerFeedbacks datatypes.JSON `gorm:"column:answer_feedbacks;type:jsonb" json:"answer_feedbacks"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (q *Question) OptionList() []string {
	return decodeStrings(q.Options)
}

// IsCorrect compares case-insensitively. Leading and trailing whitespace is ignored on both
// sides; anything else, inner spacing included, must match exactly.
func (q *Question) IsCorrect(selected string) bool {
	return strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(q.CorrectAnswer))
}

// FeedbackFor returns the per-answer feedback, falling back to a generic message.
func (q *Question) FeedbackFor(selected string, correct bool) string {
	if len(q.AnswerFeedbacks) > 0 {
		var m map[string]string
		if err := json.Unmarshal(q.AnswerFeedbacks, &m); err == nil {
			if fb, ok := m[selected]; ok && strings.TrimSpace(fb) != "" {
				return fb
			}
		}
	}
	if correct {
		return "Correct!"
	}
	return "Incorrect. The correct answer was " + q.CorrectAnswer
}
