package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nova-advisor-be/internal/constant"
	"nova-advisor-be/internal/dto"
	"nova-advisor-be/internal/entity"
	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/internal/repository/contract"
	"nova-advisor-be/internal/repository/specification"
	"nova-advisor-be/internal/repository/unitofwork"
	"nova-advisor-be/pkg/advisor"
	"nova-advisor-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// chatProvider pops canned replies in order; the count of served calls tells
// the tests how many model round trips a path made.
type chatProvider struct {
	replies []string
	served  int
}

func (p *chatProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	if len(p.replies) == 0 {
		return "", errors.New("no canned reply left")
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	p.served++
	return reply, nil
}

func (p *chatProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *chatProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("no embeddings in tests")
}

type fakeQuota struct {
	calls   int
	allowed bool
}

func (q *fakeQuota) Consume(context.Context, uuid.UUID) (bool, error) {
	q.calls++
	return q.allowed, nil
}

// --- in-memory repositories ---

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*entity.ChatSession
}

func (r *fakeSessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	r.sessions[s.Id] = s
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *entity.ChatSession) error {
	r.sessions[s.Id] = s
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, s := range r.sessions {
		if matchesSession(s, specs) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var out []*entity.ChatSession
	for _, s := range r.sessions {
		if matchesSession(s, specs) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func matchesSession(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		}
	}
	return true
}

type fakeMessageRepo struct {
	messages []*entity.ChatMessage
}

func (r *fakeMessageRepo) Create(_ context.Context, m *entity.ChatMessage) error {
	r.messages = append(r.messages, m)
	return nil
}

func (r *fakeMessageRepo) Update(context.Context, *entity.ChatMessage) error { return nil }
func (r *fakeMessageRepo) Delete(context.Context, uuid.UUID) error           { return nil }

func (r *fakeMessageRepo) DeleteByChatSessionId(_ context.Context, sessionId uuid.UUID) error {
	var kept []*entity.ChatMessage
	for _, m := range r.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	for _, m := range r.messages {
		if matchesMessage(m, specs) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func matchesMessage(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		if v, ok := spec.(specification.ByChatSessionID); ok && m.ChatSessionId != v.ChatSessionID {
			return false
		}
	}
	return true
}

type fakeUploadRepo struct{}

func (fakeUploadRepo) Create(context.Context, *entity.UploadedFile) error         { return nil }
func (fakeUploadRepo) DeleteByChatSessionId(context.Context, uuid.UUID) error     { return nil }
func (fakeUploadRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.UploadedFile, error) {
	return nil, nil
}

type fakeChatUow struct {
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
}

func (u *fakeChatUow) Begin(context.Context) error { return nil }
func (u *fakeChatUow) Commit() error               { return nil }
func (u *fakeChatUow) Rollback() error             { return nil }

func (u *fakeChatUow) UserRepository() contract.UserRepository {
	panic("not used in chat tests")
}
func (u *fakeChatUow) ChatSessionRepository() contract.ChatSessionRepository   { return u.sessions }
func (u *fakeChatUow) ChatMessageRepository() contract.ChatMessageRepository   { return u.messages }
func (u *fakeChatUow) UploadedFileRepository() contract.UploadedFileRepository { return fakeUploadRepo{} }

type fakeChatFactory struct {
	uow *fakeChatUow
}

func (f *fakeChatFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

type chatFixture struct {
	service  IChatService
	provider *chatProvider
	quota    *fakeQuota
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
	userId   uuid.UUID
	session  *entity.ChatSession
}

func newChatFixture(t *testing.T, replies []string, quotaAllowed bool) *chatFixture {
	t.Helper()

	provider := &chatProvider{replies: replies}
	quota := &fakeQuota{allowed: quotaAllowed}
	nop := logger.NewNopLogger()

	pipeline := advisor.NewPipeline(
		noopExtractor{},
		advisor.NewRouter(provider, nop),
		map[string]*advisor.Specialist{
			advisor.DomainLegal:     advisor.NewSpecialist(advisor.DomainLegal, provider, nil, nop),
			advisor.DomainFinancial: advisor.NewSpecialist(advisor.DomainFinancial, provider, nil, nop),
		},
		advisor.NewRedactor(provider),
		nop,
	)

	sessions := &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.ChatSession)}
	messages := &fakeMessageRepo{}
	uow := &fakeChatUow{sessions: sessions, messages: messages}

	svc := NewChatService(
		&fakeChatFactory{uow: uow},
		advisor.NewOrchestrator(pipeline),
		advisor.NewGuardrail(provider),
		quota,
		nil, // no event bus in these tests
		t.TempDir(),
		nop,
	)

	userId := uuid.New()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Nueva consulta",
		CreatedAt: time.Now(),
	}
	sessions.sessions[session.Id] = session

	return &chatFixture{
		service:  svc,
		provider: provider,
		quota:    quota,
		sessions: sessions,
		messages: messages,
		userId:   userId,
		session:  session,
	}
}

type noopExtractor struct{}

func (noopExtractor) Extract(_ context.Context, _ []string, previousText string) string {
	return previousText
}

func TestQueryRejectedOpeningKeepsQuotaUntouched(t *testing.T) {
	f := newChatFixture(t, []string{"REJECT"}, true)

	_, err := f.service.Query(context.Background(), f.userId, &dto.QueryRequest{
		Query:     "¿cómo se cocina una paella?",
		SessionId: f.session.Id.String(),
	}, nil)

	var rejected *GuardrailRejectedError
	assert.ErrorAs(t, err, &rejected)
	assert.Equal(t, 0, f.quota.calls)
	assert.Empty(t, f.messages.messages)
}

func TestQueryIntentDeclarationKeepsQuotaUntouched(t *testing.T) {
	f := newChatFixture(t, []string{"ACCEPT"}, true)

	res, err := f.service.Query(context.Background(), f.userId, &dto.QueryRequest{
		Query:     "legal",
		SessionId: f.session.Id.String(),
	}, nil)

	assert.NoError(t, err)
	assert.Contains(t, res.Reply, "Intento registrado")
	assert.Equal(t, 0, f.quota.calls)
	assert.Equal(t, constant.IntentLegal, f.session.Intent)

	// The declaration persists the user turn and the intent system turn.
	assert.Len(t, f.messages.messages, 2)
	assert.Equal(t, constant.IntentMessagePrefix+"legal", f.messages.messages[1].Content)
}

func TestQueryPipelineTurnConsumesQuota(t *testing.T) {
	f := newChatFixture(t, []string{"ACCEPT", "Tu contrato es válido según la cláusula 4."}, true)

	res, err := f.service.Query(context.Background(), f.userId, &dto.QueryRequest{
		Query:     "¿Es válido mi contrato?",
		SessionId: f.session.Id.String(),
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, f.quota.calls)
	assert.Equal(t, "Tu contrato es válido según la cláusula 4.", res.Reply)
	assert.Len(t, f.messages.messages, 2)
}

func TestQueryQuotaExceededShortCircuitsBeforePipeline(t *testing.T) {
	f := newChatFixture(t, []string{"ACCEPT"}, false)

	res, err := f.service.Query(context.Background(), f.userId, &dto.QueryRequest{
		Query:     "¿Es válido mi contrato?",
		SessionId: f.session.Id.String(),
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, MsgQuotaExceeded, res.Reply)
	assert.Equal(t, 1, f.quota.calls)
	// The guardrail ran (first message) but the pipeline never did.
	assert.Equal(t, 1, f.provider.served)
	assert.Empty(t, f.messages.messages)
}
