// Command simulation runs the advisory engine end to end against a canned
// model, without a server, a database, or any external service. Useful to
// eyeball how routing, document memory and the specialist stages chain up.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/advisor"
	"nova-advisor-be/pkg/llm"
	"nova-advisor-be/pkg/memorytag"

	"github.com/fatih/color"
)

// cannedProvider answers each pipeline stage by recognizing its prompt. No
// network involved.
type cannedProvider struct{}

func (p *cannedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("empty history")
	}
	sys := history[0].Content

	switch {
	case strings.Contains(sys, "Senior Orchestrator"):
		// Hand everything to the legal specialist unless the document
		// already answers it.
		if strings.Contains(sys, "cláusula de permanencia") {
			return "Según tu documento, la cláusula de permanencia es de 12 meses.", nil
		}
		return "DOMAIN:LEGAL", nil
	case strings.Contains(sys, "especialista"):
		return "Analisis: el contrato de arrendamiento requiere un preaviso de 30 dias segun la normativa vigente.", nil
	case strings.Contains(sys, "Rewrite this analysis"):
		return "Para rescindir tu contrato de arrendamiento necesitas un preaviso de 30 días.", nil
	case strings.Contains(sys, "ACCEPT") && strings.Contains(sys, "REJECT"):
		return "ACCEPT", nil
	}
	return "", fmt.Errorf("unrecognized prompt")
}

func (p *cannedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleSystem, Content: prompt}})
}

func (p *cannedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings not available offline")
}

// passthroughExtractor keeps the remembered document untouched; the dry run
// has no files to read.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(ctx context.Context, filePaths []string, previousText string) string {
	return previousText
}

func main() {
	fmt.Println("=== Advisory Engine Dry Run ===")

	provider := &cannedProvider{}
	nop := logger.NewNopLogger()

	pipeline := advisor.NewPipeline(
		passthroughExtractor{},
		advisor.NewRouter(provider, nop),
		map[string]*advisor.Specialist{
			advisor.DomainLegal:     advisor.NewSpecialist(advisor.DomainLegal, provider, nil, nop),
			advisor.DomainFinancial: advisor.NewSpecialist(advisor.DomainFinancial, provider, nil, nop),
		},
		advisor.NewRedactor(provider),
		nop,
	)
	orchestrator := advisor.NewOrchestrator(pipeline)

	userLabel := color.New(color.FgCyan, color.Bold)
	aiLabel := color.New(color.FgGreen, color.Bold)
	memLabel := color.New(color.FgYellow)

	// Seed the transcript with a remembered document, as if a contract had
	// been uploaded on an earlier turn.
	doc := "CONTRATO DE ARRENDAMIENTO. Cláusula 4: cláusula de permanencia de 12 meses. Cláusula 7: preaviso de 30 días."
	history := []advisor.Turn{
		{Role: "user", Content: "Te adjunto mi contrato de arrendamiento."},
		{Role: "assistant", Content: memorytag.Encode("He leído tu contrato. ¿Qué quieres saber?", doc)},
	}

	queries := []string{
		"¿Qué dice mi contrato sobre la cláusula de permanencia?",
		"¿Cómo puedo rescindir el contrato?",
	}

	ctx := context.Background()
	for _, q := range queries {
		userLabel.Printf("\nUSER: ")
		fmt.Println(q)

		start := time.Now()
		wrapped, err := orchestrator.Respond(ctx, q, nil, history)
		if err != nil {
			log.Fatalf("turn failed: %v", err)
		}

		reply, remembered := memorytag.Decode(wrapped)
		aiLabel.Printf("AI (%v): ", time.Since(start).Round(time.Millisecond))
		fmt.Println(reply)
		if remembered != "" {
			memLabel.Printf("  [document memory: %d chars carried forward]\n", len(remembered))
		}

		// Persist the turn the way the chat service does.
		history = append(history,
			advisor.Turn{Role: "user", Content: q},
			advisor.Turn{Role: "assistant", Content: wrapped},
		)
	}

	fmt.Println("\nDone.")
}
