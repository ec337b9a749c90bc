package advisor

import (
	"context"
	"strings"

	"nova-advisor-be/pkg/llm"
	"nova-advisor-be/pkg/memorytag"
)

// Turn is one persisted transcript entry as stored by the caller.
type Turn struct {
	Role    string
	Content string
}

// Orchestrator is the engine's entry point. It rebuilds the pipeline state
// from the persisted transcript, runs the turn, and re-arms the document
// memory on the reply.
type Orchestrator struct {
	pipeline *Pipeline
}

func NewOrchestrator(pipeline *Pipeline) *Orchestrator {
	return &Orchestrator{pipeline: pipeline}
}

// Respond answers one user turn. The returned reply carries the document
// memory wrapper; callers persist it verbatim and strip the wrapper before
// showing the reply to the user.
//
// Document memory is recovered from the history: the wrapper payload of the
// latest message that carries one wins. Wrappers are stripped from every
// message before the model sees the transcript.
func (o *Orchestrator) Respond(ctx context.Context, userQuery string, filePaths []string, history []Turn) (string, error) {
	var messages []llm.Message
	var rememberedDoc string

	for _, turn := range history {
		clean, doc := memorytag.Decode(turn.Content)
		if doc != "" {
			rememberedDoc = doc
		}
		if clean == "" {
			continue
		}

		role := llm.RoleAssistant
		switch strings.ToLower(strings.TrimSpace(turn.Role)) {
		case llm.RoleUser:
			role = llm.RoleUser
		case llm.RoleSystem:
			role = llm.RoleSystem
		}
		messages = append(messages, llm.Message{Role: role, Content: clean})
	}

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: strings.TrimSpace(userQuery),
	})

	state, err := o.pipeline.Run(ctx, RunState{
		Messages:     messages,
		FilePaths:    filePaths,
		DocumentText: memorytag.Truncate(rememberedDoc, memorytag.MaxDocChars),
	})
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(state.FinalResponse)
	doc := memorytag.Truncate(strings.TrimSpace(state.DocumentText), memorytag.MaxDocChars)

	return memorytag.Encode(answer, doc), nil
}
