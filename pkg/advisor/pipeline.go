package advisor

import (
	"context"
	"strings"

	"nova-advisor-be/internal/pkg/logger"
)

// DocumentExtractor merges newly uploaded files into the remembered document
// text.
type DocumentExtractor interface {
	Extract(ctx context.Context, filePaths []string, previousText string) string
}

// Pipeline runs a turn through the four stages in order: extract, route,
// specialize, redact. Routing may terminate the run early with a direct
// answer or a fixed refusal.
type Pipeline struct {
	extractor   DocumentExtractor
	router      *Router
	specialists map[string]*Specialist
	redactor    *Redactor
	logger      logger.ILogger
}

func NewPipeline(
	extractor DocumentExtractor,
	router *Router,
	specialists map[string]*Specialist,
	redactor *Redactor,
	log logger.ILogger,
) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		router:      router,
		specialists: specialists,
		redactor:    redactor,
		logger:      log,
	}
}

// Run executes the stages sequentially and returns the completed state.
// FinalResponse is always set on a nil error.
func (p *Pipeline) Run(ctx context.Context, state RunState) (RunState, error) {
	state.DocumentText = p.extractor.Extract(ctx, state.FilePaths, state.DocumentText)

	state, err := p.router.Route(ctx, state)
	if err != nil {
		return state, err
	}
	if strings.TrimSpace(state.FinalResponse) != "" {
		return state, nil
	}

	state = p.specialize(ctx, state)

	return p.redactor.Redact(ctx, state)
}

// specialize runs the routed domain agent. Failures become fixed apologies
// set as the final response directly: they are already user-facing Spanish,
// so rewriting them through the redactor buys nothing and can fail for the
// same reason the specialist did.
func (p *Pipeline) specialize(ctx context.Context, state RunState) RunState {
	domain := strings.ToLower(strings.TrimSpace(state.Domain))
	if domain == "" {
		domain = DomainLegal
	}

	specialist, ok := p.specialists[domain]
	if !ok || specialist == nil {
		state.FinalResponse = MsgSpecialistUnavailable
		return state
	}

	analysis, err := specialist.Analyze(ctx, state)
	if err != nil {
		p.logger.Error("advisor", "specialist failed", map[string]interface{}{
			"domain": domain,
			"error":  err.Error(),
		})
		state.FinalResponse = MsgSpecialistFailed
		return state
	}

	state.Analysis = analysis
	return state
}
