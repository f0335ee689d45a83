package model

import "time"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message of a session's append-only history.
// OrderingKey is a nanosecond timestamp with an ordinal role suffix so two
// turns written in the same save sort user-before-assistant.
type ConversationTurn struct {
	SessionID   string    `gorm:"type:varchar(128);primaryKey;column:session_id" json:"sessionId"`
	OrderingKey string    `gorm:"type:varchar(64);primaryKey;column:ordering_key" json:"orderingKey"`
	Role        string    `gorm:"type:varchar(16);not null;column:role" json:"role"`
	Content     string    `gorm:"type:text;column:content" json:"content"`
	CreatedAt   time.Time `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
}

// TableName maps the model to its table.
func (ConversationTurn) TableName() string {
	return "conversation_turns"
}
