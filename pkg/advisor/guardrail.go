package advisor

import (
	"context"
	"strings"

	"nova-advisor-be/pkg/llm"
)

const MsgGuardrailRejected = "Lo siento, solo puedo ayudarte con consultas legales o financieras. Por favor, reformula tu pregunta dentro de estos temas."

// Guardrail classifies the opening query of a session as in-scope or not.
// Later turns skip it: once a session is established the router and the
// specialists keep the conversation on topic.
type Guardrail struct {
	provider llm.LLMProvider
}

func NewGuardrail(provider llm.LLMProvider) *Guardrail {
	return &Guardrail{provider: provider}
}

// Validate returns whether the query may open a session and, when rejected,
// the user-facing reason. Turns with file attachments pass unconditionally:
// uploading a document is taken as domain intent.
func (g *Guardrail) Validate(ctx context.Context, query string, fileNames []string) (bool, string, error) {
	if len(fileNames) > 0 {
		return true, "", nil
	}

	sysPrompt := "Eres un clasificador de guardrail para un asistente especializado en temas legales y financieros.\n\n" +
		"Tu tarea es determinar si una consulta del usuario está relacionada con:\n" +
		"- Temas LEGALES (contratos, leyes, regulaciones, derechos, obligaciones legales, etc.)\n" +
		"- Temas FINANCIEROS (análisis de estados financieros, inversiones, presupuestos, métricas económicas, etc.)\n\n" +
		"Instrucciones:\n" +
		"- Si la consulta está claramente relacionada con legal o finanzas, responde SOLO con: ACCEPT\n" +
		"- Si la consulta es sobre otros temas (tecnología, medicina, recetas, historia, etc.), responde SOLO con: REJECT\n" +
		"- Si la consulta es ambigua o un saludo inicial, responde con: ACCEPT\n\n" +
		"Responde únicamente con ACCEPT o REJECT, sin explicaciones adicionales."

	verdict, err := g.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: sysPrompt},
		{Role: llm.RoleUser, Content: query},
	})
	if err != nil {
		return false, "", err
	}

	if strings.Contains(strings.ToUpper(verdict), "ACCEPT") {
		return true, "", nil
	}
	return false, MsgGuardrailRejected, nil
}
