package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one persisted transcript entry. Content of assistant
// messages may carry the hidden document-memory wrapper; it is stored
// verbatim and stripped only at the presentation edge.
type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	Attachments   []string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
