package advisor

import (
	"context"
	"strings"

	"nova-advisor-be/pkg/llm"
)

const MsgInsufficientContext = "No tengo suficiente información para responder."

// Redactor rewrites the specialist's analysis into a concise user-facing
// answer.
type Redactor struct {
	provider llm.LLMProvider
}

func NewRedactor(provider llm.LLMProvider) *Redactor {
	return &Redactor{provider: provider}
}

// Redact is a no-op when an earlier stage already produced the final
// response. An empty analysis yields the insufficient-context message
// without a model call.
func (r *Redactor) Redact(ctx context.Context, state RunState) (RunState, error) {
	if strings.TrimSpace(state.FinalResponse) != "" {
		return state, nil
	}

	analysis := strings.TrimSpace(state.Analysis)
	if analysis == "" {
		state.FinalResponse = MsgInsufficientContext
		return state, nil
	}

	answer, err := r.provider.Chat(ctx, []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You are the Orchestrator. Rewrite this analysis into natural Spanish.\n" +
				"Be brief, direct. Respond in Spanish (Castellano).\n",
		},
		{Role: llm.RoleUser, Content: analysis},
	})
	if err != nil {
		return state, err
	}

	state.FinalResponse = strings.TrimSpace(answer)
	return state, nil
}
