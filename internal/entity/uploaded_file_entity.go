package entity

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile tracks a file stored under the session's upload directory.
// Files are kept after extraction so users can re-reference them later.
type UploadedFile struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	FileName      string
	StoredPath    string
	SizeBytes     int64
	CreatedAt     time.Time
}
