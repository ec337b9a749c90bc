package implementation

import (
	"context"

	"nova-advisor-be/internal/entity"
	"nova-advisor-be/internal/mapper"
	"nova-advisor-be/internal/model"
	"nova-advisor-be/internal/repository/contract"
	"nova-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UploadedFileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewUploadedFileRepository(db *gorm.DB) contract.UploadedFileRepository {
	return &UploadedFileRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *UploadedFileRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UploadedFileRepositoryImpl) Create(ctx context.Context, file *entity.UploadedFile) error {
	m := r.mapper.UploadedFileToModel(file)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*file = *r.mapper.UploadedFileToEntity(m)
	return nil
}

func (r *UploadedFileRepositoryImpl) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("chat_session_id = ?", sessionId).Delete(&model.UploadedFile{}).Error
}

func (r *UploadedFileRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UploadedFile, error) {
	var models []*model.UploadedFile
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.UploadedFile, len(models))
	for i, m := range models {
		entities[i] = r.mapper.UploadedFileToEntity(m)
	}
	return entities, nil
}
