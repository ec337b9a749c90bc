package search

import (
	"fmt"
	"strings"
)

// textFieldCandidates is the probe order for the hit's content field. The
// backing index schema varies per deployment, so none of these is guaranteed.
var textFieldCandidates = []string{
	"content_text",
	"content",
	"text",
	"document_text",
	"body",
	"searchable_text",
}

// minPlausibleTextLen separates real content fields from ids, titles and
// language codes when scanning unknown schemas.
const minPlausibleTextLen = 30

// ExtractText mines a hit for its text payload: first the known candidate
// fields in order, then any string field with substantial content, then the
// hit's string rendering. It never fails on a missing field.
func ExtractText(hit Hit) string {
	for _, key := range textFieldCandidates {
		if v, ok := hit.Fields[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}

	// Unknown schema: take the longest string field that looks like content.
	var best string
	for key, v := range hit.Fields {
		if strings.HasPrefix(key, "@search.") {
			continue
		}
		if s, ok := v.(string); ok && len(strings.TrimSpace(s)) > minPlausibleTextLen && len(s) > len(best) {
			best = s
		}
	}
	if best != "" {
		return best
	}

	if len(hit.Fields) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", hit.Fields)
}
