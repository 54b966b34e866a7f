package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserAnswer is one submission. It references a Question without owning it; every submission is kept.
type UserAnswer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index:idx_user_answer_user_question" json:"user_id"`
	QuestionID     uuid.UUID `gorm:"type:uuid;not null;index:idx_user_answer_user_question;index" json:"question_id"`
	SelectedAnswer string    `gorm:"column:selected_answer;not null" json:"selected_answer"`
	IsCorrect      bool      `gorm:"column:is_correct;not null" json:"is_correct"`
	TimeTakenMs    *int64    `gorm:"column:time_taken_ms" json:"time_taken_ms,omitempty"`
	AnsweredAt     time.Time `gorm:"column:answered_at;not null;index" json:"answered_at"`
}

func (UserAnswer) TableName() string { return "user_answer" }

func (a *UserAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now().UTC()
	}
	return nil
}
