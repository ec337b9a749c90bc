// Package memorytag implements the hidden document-memory protocol: the
// cumulative extracted text of a conversation's uploads is carried inside the
// persisted assistant message between a fixed pair of HTML-comment markers.
// Existing conversations depend on the exact marker strings and on non-greedy
// whole-content matching, so neither may change.
package memorytag

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	TagStart = "<!--HISTORICAL_DOC_TEXT-->"
	TagEnd   = "<!--END_HISTORICAL_DOC_TEXT-->"

	// MaxDocChars caps the carried document text to keep completion requests
	// within budget.
	MaxDocChars = 20000
)

var (
	wrapperPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(TagStart) + `(.*?)` + regexp.QuoteMeta(TagEnd))
)

// Encode appends the wrapped document text to the answer. An empty document is
// still wrapped: the empty wrapper marks "memory present, nothing extracted"
// and decodes back to an empty string on the next turn.
func Encode(answer, docText string) string {
	return answer + "\n" + TagStart + Truncate(docText, MaxDocChars) + TagEnd
}

// Decode splits message content into the user-visible text and the embedded
// document text. Content without a marker pair yields the content unchanged
// and an empty document.
func Decode(content string) (visible, docText string) {
	if content == "" {
		return "", ""
	}
	m := wrapperPattern.FindStringSubmatch(content)
	if m == nil {
		return content, ""
	}
	return Strip(content), strings.TrimSpace(m[1])
}

// Strip removes every wrapped span from the content. It is the identity on
// content that carries no markers, and must run on anything shown to a human
// or replayed as literal model input.
func Strip(content string) string {
	if content == "" {
		return ""
	}
	return strings.TrimSpace(wrapperPattern.ReplaceAllString(content, ""))
}

// Truncate enforces the character budget keeping the tail of the text.
// Legal and financial documents put the identifying material (signatures,
// parties, totals) at the end. The budget counts characters, not bytes:
// accented Spanish text must neither lose half its budget nor get cut
// mid-rune.
func Truncate(text string, maxChars int) string {
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	return string(runes[len(runes)-maxChars:])
}
