package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nova-advisor-be/internal/constant"
	"nova-advisor-be/internal/dto"
	"nova-advisor-be/internal/entity"
	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/internal/repository/specification"
	"nova-advisor-be/internal/repository/unitofwork"
	"nova-advisor-be/pkg/advisor"
	"nova-advisor-be/pkg/events"
	"nova-advisor-be/pkg/memorytag"

	"github.com/google/uuid"
)

const historyWindow = 50

// GuardrailRejectedError carries the user-facing rejection reason.
type GuardrailRejectedError struct {
	Reason string
}

func (e *GuardrailRejectedError) Error() string {
	return e.Reason
}

type IChatService interface {
	Query(ctx context.Context, userId uuid.UUID, req *dto.QueryRequest, files []*multipart.FileHeader) (*dto.QueryResponse, error)
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	orchestrator *advisor.Orchestrator
	guardrail    *advisor.Guardrail
	quota        IQuotaService
	publisher    *events.Publisher
	uploadDir    string
	logger       logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *advisor.Orchestrator,
	guardrail *advisor.Guardrail,
	quota IQuotaService,
	publisher *events.Publisher,
	uploadDir string,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		guardrail:    guardrail,
		quota:        quota,
		publisher:    publisher,
		uploadDir:    uploadDir,
		logger:       log,
	}
}

// Query runs one advisory turn: session resolution, quota, first-message
// guardrail and intent declaration, upload storage, pipeline execution, and
// transcript persistence. The stored assistant message keeps the memory
// wrapper; the returned reply is stripped.
func (s *chatService) Query(ctx context.Context, userId uuid.UUID, req *dto.QueryRequest, files []*multipart.FileHeader) (*dto.QueryResponse, error) {
	started := time.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.resolveSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	fileNames := make([]string, len(files))
	for i, f := range files {
		fileNames[i] = f.Filename
	}

	messageCount, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: session.Id})
	if err != nil {
		return nil, err
	}

	if messageCount == 0 {
		ok, reason, err := s.guardrail.Validate(ctx, req.Query, fileNames)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &GuardrailRejectedError{Reason: reason}
		}

		if resp, handled, err := s.handleIntentDeclaration(ctx, uow, session, req); handled || err != nil {
			return resp, err
		}
	}

	// Only turns that reach the pipeline count against the daily budget:
	// rejected openings and bare intent declarations don't burn a credit.
	allowed, err := s.quota.Consume(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &dto.QueryResponse{
			Reply:     MsgQuotaExceeded,
			SessionId: session.Id,
			VoiceMode: req.VoiceMode,
		}, nil
	}

	filePaths, err := s.storeUploads(ctx, uow, session.Id, files)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	replyWithMemory, err := s.orchestrator.Respond(ctx, req.Query, filePaths, history)
	if err != nil {
		return nil, err
	}
	replyClean := memorytag.Strip(replyWithMemory)

	if err := s.persistTurn(ctx, uow, session.Id, req.Query, fileNames, replyWithMemory); err != nil {
		return nil, err
	}

	s.publishTurnRecorded(ctx, session.Id, userId, req.Query, replyClean, len(files), started)

	return &dto.QueryResponse{
		Reply:     replyClean,
		SessionId: session.Id,
		VoiceMode: req.VoiceMode,
	}, nil
}

// resolveSession loads the named session (owner-checked) or creates a fresh
// one when the request carries no session id.
func (s *chatService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId string) (*entity.ChatSession, error) {
	if sessionId != "" {
		id, err := uuid.Parse(sessionId)
		if err != nil {
			return nil, ErrSessionNotFound
		}
		session, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: id},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		return session, nil
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Nueva consulta",
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// handleIntentDeclaration records a bare "financiera"/"legal" opening message
// without running the pipeline.
func (s *chatService) handleIntentDeclaration(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession, req *dto.QueryRequest) (*dto.QueryResponse, bool, error) {
	qnorm := strings.ToLower(strings.TrimSpace(req.Query))
	if qnorm != constant.IntentFinancial && qnorm != constant.IntentLegal {
		return nil, false, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, true, err
	}
	defer uow.Rollback()

	userMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.RoleUser,
		Content:       req.Query,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return nil, true, err
	}

	intentMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.RoleSystem,
		Content:       constant.IntentMessagePrefix + qnorm,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, intentMsg); err != nil {
		return nil, true, err
	}

	session.Intent = qnorm
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, true, err
	}

	if err := uow.Commit(); err != nil {
		return nil, true, err
	}

	confirm := fmt.Sprintf("Intento registrado: '%s'. Ahora puedes enviar tu consulta o adjuntar archivos.", qnorm)
	return &dto.QueryResponse{
		Reply:     confirm,
		SessionId: session.Id,
		VoiceMode: req.VoiceMode,
	}, true, nil
}

// storeUploads writes the uploaded files under uploads/<session>/<uuid><ext>
// and records them. Files stay on disk after extraction for later reference.
func (s *chatService) storeUploads(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	dir := filepath.Join(s.uploadDir, sessionId.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, header := range files {
		storedPath := filepath.Join(dir, uuid.New().String()+strings.ToLower(filepath.Ext(header.Filename)))
		if err := saveMultipartFile(header, storedPath); err != nil {
			return nil, fmt.Errorf("failed to store upload %s: %w", header.Filename, err)
		}

		record := &entity.UploadedFile{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			FileName:      header.Filename,
			StoredPath:    storedPath,
			SizeBytes:     header.Size,
			CreatedAt:     time.Now(),
		}
		if err := uow.UploadedFileRepository().Create(ctx, record); err != nil {
			return nil, err
		}

		paths = append(paths, storedPath)
	}
	return paths, nil
}

func saveMultipartFile(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (s *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]advisor.Turn, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: historyWindow},
	)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	history := make([]advisor.Turn, len(messages))
	for i, msg := range messages {
		history[len(messages)-1-i] = advisor.Turn{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return history, nil
}

func (s *chatService) persistTurn(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, query string, fileNames []string, replyWithMemory string) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	userMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.RoleUser,
		Content:       query,
		Attachments:   fileNames,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return err
	}

	assistantMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.RoleAssistant,
		Content:       replyWithMemory,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMsg); err != nil {
		return err
	}

	return uow.Commit()
}

// publishTurnRecorded emits the audit event. Failures are logged and never
// fail the request.
func (s *chatService) publishTurnRecorded(ctx context.Context, sessionId, userId uuid.UUID, query, reply string, fileCount int, started time.Time) {
	if s.publisher == nil {
		return
	}

	event := events.BaseEvent{
		Type: "TURN_RECORDED",
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"user_id":    userId.String(),
			"query":      query,
			"reply":      reply,
			"file_count": fileCount,
			"latency_ms": time.Since(started).Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("chat", "failed to publish turn event", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}
