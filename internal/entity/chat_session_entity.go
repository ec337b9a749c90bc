package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	Intent       string // "", "financiera" or "legal"
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
