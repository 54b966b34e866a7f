package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AICallLog records one AI gateway call. Written best-effort, outside request transactions.
type AICallLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ContextID *uuid.UUID     `gorm:"type:uuid;index" json:"context_id,omitempty"`
	CallType  string         `gorm:"column:call_type;not null;index" json:"call_type"`
	Model     string         `gorm:"column:model;not null" json:"model"`
	Prompt    string         `gorm:"column:prompt;type:text" json:"prompt"`
	Response  string         `gorm:"column:response;type:text" json:"response"`
	Success   bool           `gorm:"column:success;not null" json:"success"`
	Fallback  bool           `gorm:"column:fallback;not null;default:false" json:"fallback"`
	Error     string         `gorm:"column:error;type:text" json:"error"`
	LatencyMs int64          `gorm:"column:latency_ms" json:"latency_ms"`
	Usage     datatypes.JSON `gorm:"column:usage;type:jsonb" json:"usage"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (AICallLog) TableName() string { return "ai_call_log" }

func (l *AICallLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
