package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Name string `json:"name" validate:"omitempty,max=255"`
}

type CreateSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Welcome   string    `json:"welcome"`
}

type SessionInfoResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Intent       string     `json:"intent,omitempty"`
	MessageCount int        `json:"message_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// QueryRequest is the multipart form for one advisory turn. Files arrive as
// the "files" form field alongside these values.
type QueryRequest struct {
	Query     string `form:"query" validate:"required,max=8000"`
	SessionId string `form:"session_id" validate:"omitempty,uuid"`
	VoiceMode bool   `form:"voice_mode"`
}

type QueryResponse struct {
	Reply     string    `json:"reply"`
	SessionId uuid.UUID `json:"session_id"`
	VoiceMode bool      `json:"voice_mode"`
}

type ChatHistoryEntryResponse struct {
	Id          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
