package contract

import (
	"context"

	"nova-advisor-be/internal/entity"
	"nova-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UploadedFileRepository interface {
	Create(ctx context.Context, file *entity.UploadedFile) error
	DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UploadedFile, error)
}
