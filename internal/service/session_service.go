package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"nova-advisor-be/internal/dto"
	"nova-advisor-be/internal/entity"
	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/internal/repository/specification"
	"nova-advisor-be/internal/repository/unitofwork"
	"nova-advisor-be/pkg/memorytag"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

const defaultHistoryLimit = 200

type ISessionService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionInfoResponse, error)
	GetMessages(ctx context.Context, userId, sessionId uuid.UUID, limit int) ([]*dto.ChatHistoryEntryResponse, error)
	ClearSession(ctx context.Context, userId, sessionId uuid.UUID) error
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
	DeleteAllSessions(ctx context.Context, userId uuid.UUID) error
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	uploadDir  string
	welcome    string
	logger     logger.ILogger
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory, uploadDir, welcome string, log logger.ILogger) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		uploadDir:  uploadDir,
		welcome:    welcome,
		logger:     log,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	title := req.Name
	if title == "" {
		title = "Nueva consulta"
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		SessionId: session.Id,
		Welcome:   s.welcome,
	}, nil
}

func (s *sessionService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionInfoResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.SessionInfoResponse, len(sessions))
	for i, session := range sessions {
		count, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: session.Id})
		if err != nil {
			return nil, err
		}
		result[i] = &dto.SessionInfoResponse{
			Id:           session.Id,
			Title:        session.Title,
			Intent:       session.Intent,
			MessageCount: int(count),
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
		}
	}
	return result, nil
}

// GetMessages returns the session transcript oldest-first. Assistant content
// is stripped of the document-memory wrapper: the raw stored form never
// leaves the service layer.
func (s *sessionService) GetMessages(ctx context.Context, userId, sessionId uuid.UUID, limit int) ([]*dto.ChatHistoryEntryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.verifyOwnership(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ChatHistoryEntryResponse, len(messages))
	for i, msg := range messages {
		result[i] = &dto.ChatHistoryEntryResponse{
			Id:          msg.Id,
			Role:        msg.Role,
			Content:     memorytag.Strip(msg.Content),
			Attachments: msg.Attachments,
			CreatedAt:   msg.CreatedAt,
		}
	}
	return result, nil
}

// ClearSession removes the transcript but keeps the session row.
func (s *sessionService) ClearSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.verifyOwnership(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	return uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId)
}

func (s *sessionService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.verifyOwnership(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.UploadedFileRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.removeUploadDir(sessionId)
	return nil
}

func (s *sessionService) DeleteAllSessions(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}

	for _, session := range sessions {
		if err := s.DeleteSession(ctx, userId, session.Id); err != nil {
			return err
		}
	}
	return nil
}

func (s *sessionService) verifyOwnership(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) error {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return nil
}

func (s *sessionService) removeUploadDir(sessionId uuid.UUID) {
	dir := filepath.Join(s.uploadDir, sessionId.String())
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("session", "failed to remove upload directory", map[string]interface{}{
			"dir":   dir,
			"error": err.Error(),
		})
	}
}
