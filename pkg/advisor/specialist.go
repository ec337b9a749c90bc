package advisor

import (
	"context"
	"strings"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/llm"
	"nova-advisor-be/pkg/memorytag"
	"nova-advisor-be/pkg/search"
)

const (
	MsgSpecialistFailed      = "Lo siento, ocurrió un error al procesar tu consulta."
	MsgSpecialistUnavailable = "No se pudo acceder al agente especialista."

	// maxHistoryTurns is how many trailing messages the specialist sees.
	maxHistoryTurns = 6
	// ragTop is how many knowledge-base fragments feed the prompt.
	ragTop = 3
)

// Specialist answers queries of a single domain, grounding the model on the
// user's document, the recent conversation, and knowledge-base retrieval.
// A nil searcher disables retrieval: the agent still answers from the
// document and history alone.
type Specialist struct {
	domain   string
	provider llm.LLMProvider
	searcher search.Searcher
	logger   logger.ILogger
}

func NewSpecialist(domain string, provider llm.LLMProvider, searcher search.Searcher, log logger.ILogger) *Specialist {
	return &Specialist{
		domain:   domain,
		provider: provider,
		searcher: searcher,
		logger:   log,
	}
}

func (s *Specialist) Domain() string {
	return s.domain
}

// Analyze produces the specialist's raw analysis for the turn. Retrieval
// failures degrade to an empty knowledge context and never abort the turn.
func (s *Specialist) Analyze(ctx context.Context, state RunState) (string, error) {
	query := state.LastUserText()
	if query == "" {
		return "No he recibido ninguna pregunta.", nil
	}

	ragContext := s.retrieve(ctx, query)
	docText := memorytag.Truncate(state.DocumentText, memorytag.MaxDocChars)
	historyText := recentHistory(state.Messages, maxHistoryTurns)

	prompt := "Eres un especialista " + s.domain + " experto. RESPONDE usando el DOCUMENTO del usuario, el contexto RAG y, si aplica, la conversacion previa.\n" +
		"Si el usuario pide repetir o aclarar una respuesta previa, responde usando la conversacion.\n" +
		"Si la pregunta es confusa o sin sentido, pide al usuario que la reformule de forma educada.\n" +
		"Si la pregunta esta claramente fuera del ambito legal/financiero, responde exactamente: '" + MsgOffTopic + "'\n" +
		"Si no hay suficiente informacion en el contexto disponible, indicalo y pide mas detalle o un documento.\n" +
		"Responde en español (castellano), de forma clara y profesional.\n" +
		"\nCONVERSACION RECIENTE:\n" + historyText + "\n" +
		"\nDOCUMENTO DEL USUARIO:\n" + docText + "\n" +
		"\nCONTEXTO RAG (Base de conocimientos):\n" + ragContext + "\n"

	answer, err := s.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: query},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(answer), nil
}

func (s *Specialist) retrieve(ctx context.Context, query string) string {
	if s.searcher == nil {
		return ""
	}

	hits, err := s.searcher.Search(ctx, query, search.WithTop(ragTop))
	if err != nil {
		s.logger.Warn("advisor", "retrieval failed, continuing without knowledge context", map[string]interface{}{
			"domain": s.domain,
			"error":  err.Error(),
		})
		return ""
	}

	s.logger.Info("advisor", "retrieval completed", map[string]interface{}{
		"domain":  s.domain,
		"results": len(hits),
	})

	var fragments []string
	for _, hit := range hits {
		if text := search.ExtractText(hit); text != "" {
			fragments = append(fragments, text)
		}
	}
	return strings.Join(fragments, "\n")
}

// recentHistory renders the trailing messages as labeled lines for the
// specialist prompt. Blank messages are dropped.
func recentHistory(messages []llm.Message, limit int) string {
	start := len(messages) - limit
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, m := range messages[start:] {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}

		label := "Asistente"
		switch m.Role {
		case llm.RoleUser:
			label = "Usuario"
		case llm.RoleSystem:
			label = "Sistema"
		}
		lines = append(lines, label+": "+content)
	}
	return strings.Join(lines, "\n")
}
