// Package advisor implements the legal/financial advisory engine: a staged
// pipeline that extracts uploaded documents, routes the query, consults a
// domain specialist backed by hybrid retrieval, and redacts the final answer.
package advisor

import (
	"strings"

	"nova-advisor-be/pkg/llm"
)

// Domain labels a specialist branch of the pipeline.
const (
	DomainLegal     = "legal"
	DomainFinancial = "financial"
)

// RunState carries one turn through the pipeline. Stages never mutate their
// input; each returns a derived copy with its own fields filled in.
type RunState struct {
	Messages      []llm.Message
	FilePaths     []string
	DocumentText  string
	Domain        string
	Analysis      string
	FinalResponse string
}

// LastUserText returns the content of the most recent user message, or ""
// when the transcript holds none.
func (s RunState) LastUserText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == llm.RoleUser {
			return strings.TrimSpace(s.Messages[i].Content)
		}
	}
	return ""
}
