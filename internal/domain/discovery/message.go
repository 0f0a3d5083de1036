package discovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transcript roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// SessionMessage is one transcript turn. Seq orders turns within a session;
// the orchestrator appends the user turn then the assistant turn.
type SessionMessage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Role      string         `gorm:"column:role;not null" json:"role"`
	Content   string         `gorm:"column:content;not null" json:"content"`
	Choices   datatypes.JSON `gorm:"column:choices" json:"choices,omitempty"`
	Seq       int            `gorm:"column:seq;not null;index" json:"seq"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (SessionMessage) TableName() string { return "session_message" }
