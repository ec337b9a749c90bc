package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/llm"
	"nova-advisor-be/pkg/memorytag"
	"nova-advisor-be/pkg/search"
)

// scriptedProvider returns canned chat replies in order.
type scriptedProvider struct {
	replies []string
	calls   []string
	err     error
}

func (p *scriptedProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 {
		p.calls = append(p.calls, history[0].Content)
	}
	if p.err != nil {
		return "", p.err
	}
	if len(p.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (p *scriptedProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

// passthroughExtractor keeps the remembered text untouched.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(_ context.Context, _ []string, previous string) string {
	return previous
}

// appendExtractor simulates reading one uploaded file per call.
type appendExtractor struct{ text string }

func (a appendExtractor) Extract(_ context.Context, paths []string, previous string) string {
	if len(paths) == 0 {
		return previous
	}
	return strings.TrimSpace(previous + "\n" + a.text)
}

type stubSearcher struct {
	hits []search.Hit
	err  error
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ ...search.Option) ([]search.Hit, error) {
	return s.hits, s.err
}

func newPipeline(provider llm.LLMProvider, extractor DocumentExtractor, searcher search.Searcher) *Pipeline {
	log := logger.NewNopLogger()
	specialists := map[string]*Specialist{
		DomainLegal:     NewSpecialist(DomainLegal, provider, searcher, log),
		DomainFinancial: NewSpecialist(DomainFinancial, provider, searcher, log),
	}
	return NewPipeline(extractor, NewRouter(provider, log), specialists, NewRedactor(provider), log)
}

func userTurn(content string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: content}
}

func TestRunDirectAnswerTerminatesAfterRouting(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"El contrato vence el 31 de diciembre."}}
	p := newPipeline(provider, passthroughExtractor{}, nil)

	state, err := p.Run(context.Background(), RunState{
		Messages:     []llm.Message{userTurn("¿Cuándo vence el contrato?")},
		DocumentText: "El contrato vence el 31 de diciembre de 2026.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.FinalResponse != "El contrato vence el 31 de diciembre." {
		t.Errorf("unexpected response: %q", state.FinalResponse)
	}
	if len(provider.calls) != 1 {
		t.Errorf("expected exactly one model call, got %d", len(provider.calls))
	}
}

func TestRunRefusesOffTopicDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"Se hierve el huevo durante diez minutos."}}
	p := newPipeline(provider, passthroughExtractor{}, nil)

	state, err := p.Run(context.Background(), RunState{
		Messages: []llm.Message{userTurn("¿cómo se cocina un huevo?")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.FinalResponse != MsgOffTopic {
		t.Errorf("expected fixed refusal, got %q", state.FinalResponse)
	}
}

func TestRunEmptyQueryShortCircuits(t *testing.T) {
	provider := &scriptedProvider{}
	p := newPipeline(provider, passthroughExtractor{}, nil)

	state, err := p.Run(context.Background(), RunState{
		Messages: []llm.Message{{Role: llm.RoleAssistant, Content: "hola"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.FinalResponse != MsgNoQuestion {
		t.Errorf("expected no-question message, got %q", state.FinalResponse)
	}
	if len(provider.calls) != 0 {
		t.Errorf("expected no model calls, got %d", len(provider.calls))
	}
}

func TestRunLegalFlowThroughSpecialistAndRedactor(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		"DOMAIN:LEGAL",
		"Analisis: la clausula tercera regula la rescision del contrato.",
		"La cláusula tercera regula la rescisión.",
	}}
	searcher := &stubSearcher{hits: []search.Hit{
		{Score: 2.1, Fields: map[string]interface{}{"content_text": "Fragmento sobre rescision contractual."}},
	}}
	p := newPipeline(provider, passthroughExtractor{}, searcher)

	state, err := p.Run(context.Background(), RunState{
		Messages: []llm.Message{userTurn("¿Qué dice la ley sobre rescindir un contrato?")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Domain != DomainLegal {
		t.Errorf("expected legal routing, got %q", state.Domain)
	}
	if state.FinalResponse != "La cláusula tercera regula la rescisión." {
		t.Errorf("unexpected final response: %q", state.FinalResponse)
	}
	if !strings.Contains(provider.calls[1], "Fragmento sobre rescision contractual.") {
		t.Errorf("specialist prompt must carry the retrieved fragment")
	}
}

func TestRunSpecialistErrorDegradesToApology(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"DOMAIN:FINANCIAL"}}
	p := newPipeline(provider, passthroughExtractor{}, nil)

	state, err := p.Run(context.Background(), RunState{
		Messages: []llm.Message{userTurn("¿Cómo amortizo esta hipoteca?")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The specialist has no scripted reply left, so its call errors and the
	// apology must be surfaced as-is without a redaction call.
	if state.FinalResponse != MsgSpecialistFailed {
		t.Errorf("expected apology, got %q", state.FinalResponse)
	}
}

func TestRunRetrievalFailureDoesNotAbortTurn(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		"DOMAIN:LEGAL",
		"Analisis sin contexto de conocimiento.",
		"Respuesta final.",
	}}
	searcher := &stubSearcher{err: errors.New("index unreachable")}
	p := newPipeline(provider, passthroughExtractor{}, searcher)

	state, err := p.Run(context.Background(), RunState{
		Messages: []llm.Message{userTurn("demanda por incumplimiento")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.FinalResponse != "Respuesta final." {
		t.Errorf("unexpected response: %q", state.FinalResponse)
	}
}

func TestRunMissingSpecialistReportsUnavailable(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"DOMAIN:LEGAL", "ignored"}}
	log := logger.NewNopLogger()
	p := NewPipeline(passthroughExtractor{}, NewRouter(provider, log), map[string]*Specialist{}, NewRedactor(provider), log)

	state, err := p.Run(context.Background(), RunState{
		Messages: []llm.Message{userTurn("¿puedo rescindir el contrato?")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.FinalResponse != MsgSpecialistUnavailable {
		t.Errorf("expected unavailable message, got %q", state.FinalResponse)
	}
}

func TestRespondCarriesDocumentMemoryAcrossTurns(t *testing.T) {
	// First turn: a file is uploaded and its text must be wrapped into the
	// reply. Second turn: no files, the memory from the stored reply must
	// reach the router prompt.
	firstProvider := &scriptedProvider{replies: []string{"El arrendamiento dura un año."}}
	first := NewOrchestrator(newPipeline(firstProvider, appendExtractor{text: "Fragmento: arrendamiento por un año."}, nil))

	reply, err := first.Respond(context.Background(), "¿Cuánto dura el arrendamiento?", []string{"contrato.pdf"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, doc := memorytag.Decode(reply); !strings.Contains(doc, "Fragmento") {
		t.Fatalf("reply must carry the extracted text, got %q", reply)
	}

	secondProvider := &scriptedProvider{replies: []string{"Sí, el contrato lo permite."}}
	second := NewOrchestrator(newPipeline(secondProvider, passthroughExtractor{}, nil))

	history := []Turn{
		{Role: "user", Content: "¿Cuánto dura el arrendamiento?"},
		{Role: "assistant", Content: reply},
	}
	reply2, err := second.Respond(context.Background(), "¿Puedo renovar el contrato?", nil, history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(secondProvider.calls[0], "Fragmento: arrendamiento por un año.") {
		t.Errorf("router prompt must include the remembered document")
	}
	visible, doc := memorytag.Decode(reply2)
	if visible != "Sí, el contrato lo permite." {
		t.Errorf("unexpected visible reply: %q", visible)
	}
	if !strings.Contains(doc, "Fragmento") {
		t.Errorf("memory must be re-encoded on every turn")
	}
}

func TestRespondLatestMemoryWins(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"ok"}}
	orch := NewOrchestrator(newPipeline(provider, passthroughExtractor{}, nil))

	history := []Turn{
		{Role: "assistant", Content: memorytag.Encode("primera", "doc viejo")},
		{Role: "assistant", Content: memorytag.Encode("segunda", "doc nuevo")},
	}
	_, err := orch.Respond(context.Background(), "pregunta sobre el contrato", nil, history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(provider.calls[0], "doc nuevo") {
		t.Errorf("latest memory must win")
	}
	if strings.Contains(provider.calls[0], "doc viejo") {
		t.Errorf("older memory must be discarded")
	}
}

func TestGuardrailAcceptsFilesWithoutModelCall(t *testing.T) {
	provider := &scriptedProvider{}
	g := NewGuardrail(provider)

	ok, reason, err := g.Validate(context.Background(), "hola", []string{"balance.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || reason != "" {
		t.Errorf("attachments must pass the guardrail")
	}
	if len(provider.calls) != 0 {
		t.Errorf("expected no model call, got %d", len(provider.calls))
	}
}

func TestGuardrailRejectsOffTopicOpening(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"REJECT"}}
	g := NewGuardrail(provider)

	ok, reason, err := g.Validate(context.Background(), "receta de paella", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected rejection")
	}
	if reason != MsgGuardrailRejected {
		t.Errorf("unexpected reason: %q", reason)
	}
}
