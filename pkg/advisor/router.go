package advisor

import (
	"context"
	"strings"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/llm"
	"nova-advisor-be/pkg/memorytag"
)

// Fixed responses the pipeline emits without consulting a model.
const (
	MsgNoQuestion = "No he recibido la pregunta del usuario. Reintenta."
	MsgOffTopic   = "Lo siento, no dispongo de información sobre ese tema. Sólo puedo ayudarte en temas financieros y legales."
)

// topicKeywords gates direct answers: a reply is only surfaced when the query
// plausibly belongs to one of the served domains. Stems, not whole words.
var topicKeywords = map[string][]string{
	DomainFinancial: {
		"financ", "financial", "financiero", "finanzas", "banco", "invers",
		"contab", "crédito", "hipote", "impuest", "iva", "amortiz",
	},
	DomainLegal: {
		"legal", "contrato", "demanda", "ley", "juríd", "abogado",
		"testamento", "acuerdo", "litigio", "arrend",
	},
}

// Router decides whether the turn can be answered straight from the uploaded
// document or must be handed to a domain specialist.
type Router struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewRouter(provider llm.LLMProvider, log logger.ILogger) *Router {
	return &Router{provider: provider, logger: log}
}

// Route fills either Domain (specialist handoff) or FinalResponse (terminal
// answer). Exactly one of the two is set on return.
func (r *Router) Route(ctx context.Context, state RunState) (RunState, error) {
	query := state.LastUserText()
	if query == "" {
		state.FinalResponse = MsgNoQuestion
		return state, nil
	}

	docContext := memorytag.Truncate(state.DocumentText, memorytag.MaxDocChars)

	sysPrompt := "You are the Senior Orchestrator.\n" +
		"Your top priority is to answer using the USER UPLOADED DOCUMENT, if present.\n" +
		"Rules:\n" +
		"1) If the answer is in the document, answer directly and stop.\n" +
		"2) If NOT in the document and need legal/financial knowledge, respond with 'DOMAIN:LEGAL' or 'DOMAIN:FINANCIAL'.\n" +
		"3) Respond in Spanish (Castellano).\n" +
		"\nDOCUMENT:\n" + docContext

	answer, err := r.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: sysPrompt},
		{Role: llm.RoleUser, Content: query},
	})
	if err != nil {
		return state, err
	}

	if strings.Contains(strings.ToUpper(answer), "DOMAIN:") {
		domain := DomainFinancial
		if strings.Contains(strings.ToUpper(answer), "LEGAL") {
			domain = DomainLegal
		}
		r.logger.Info("advisor", "routing to specialist", map[string]interface{}{
			"domain": domain,
		})
		state.Domain = domain
		return state, nil
	}

	if !matchesServedTopics(query) {
		state.FinalResponse = MsgOffTopic
		return state, nil
	}

	state.FinalResponse = strings.TrimSpace(answer)
	return state, nil
}

func matchesServedTopics(query string) bool {
	q := strings.ToLower(query)
	for _, stems := range topicKeywords {
		for _, stem := range stems {
			if strings.Contains(q, stem) {
				return true
			}
		}
	}
	return false
}
