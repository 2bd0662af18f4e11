package chat

import "time"

// Record is one user turn and its eventual response.
type Record struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID         string    `gorm:"type:varchar(255);not null;index:idx_session_id" json:"session_id"`
	UserMessage       string    `gorm:"type:text;not null" json:"user_message"`
	AssistantResponse *string   `gorm:"type:text" json:"assistant_response"`
	IsError           bool      `gorm:"not null;default:false" json:"is_error"`
	ErrorMessage      *string   `gorm:"type:text" json:"error_message"`
	CreatedAt         time.Time `gorm:"index:idx_created_at" json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Record) TableName() string { return "conversations" }

type SessionStats struct {
	SessionID          string     `json:"session_id"`
	TotalConversations int64      `json:"total_conversations"`
	ErrorCount         int64      `json:"error_count"`
	FirstConversation  *time.Time `json:"first_conversation"`
	LastConversation   *time.Time `json:"last_conversation"`
}
