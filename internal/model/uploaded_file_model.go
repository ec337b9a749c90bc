package model

import (
	"time"

	"github.com/google/uuid"
)

type UploadedFile struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName      string    `gorm:"type:varchar(512);not null"`
	StoredPath    string    `gorm:"type:text;not null"`
	SizeBytes     int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
