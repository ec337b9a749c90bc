package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/memorytag"
)

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) Read(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

func newTestExtractor() *Extractor {
	return NewExtractor(&fakeOCR{}, logger.NewNopLogger())
}

func TestExtractNoNewFilesKeepsPreviousText(t *testing.T) {
	e := newTestExtractor()

	got := e.Extract(context.Background(), nil, "previously remembered text")
	if got != "previously remembered text" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestExtractMergesNewTextAfterPrevious(t *testing.T) {
	e := newTestExtractor()
	e.readPDF = func(string) (string, error) { return "clause two\n", nil }

	got := e.Extract(context.Background(), []string{"contract.pdf"}, "clause one")
	if !strings.HasPrefix(got, "clause one") {
		t.Errorf("previous text must come first, got %q", got)
	}
	if !strings.Contains(got, "clause two") {
		t.Errorf("new text missing, got %q", got)
	}
}

func TestExtractFailedFileIsSkipped(t *testing.T) {
	e := newTestExtractor()
	calls := 0
	e.readPDF = func(path string) (string, error) {
		calls++
		if strings.Contains(path, "broken") {
			return "", errors.New("malformed pdf")
		}
		return "good text", nil
	}

	got := e.Extract(context.Background(), []string{"broken.pdf", "fine.pdf"}, "")
	if calls != 2 {
		t.Errorf("expected both files attempted, got %d calls", calls)
	}
	if got != "good text" {
		t.Errorf("expected only the readable file's text, got %q", got)
	}
}

func TestExtractUnsupportedExtensionIsSkipped(t *testing.T) {
	e := newTestExtractor()

	got := e.Extract(context.Background(), []string{"notes.txt"}, "kept")
	if got != "kept" {
		t.Errorf("unsupported file must not alter memory, got %q", got)
	}
}

func TestExtractEnforcesCharacterBudgetKeepingTail(t *testing.T) {
	e := newTestExtractor()
	e.readPDF = func(string) (string, error) {
		return strings.Repeat("b", memorytag.MaxDocChars), nil
	}

	got := e.Extract(context.Background(), []string{"big.pdf"}, strings.Repeat("a", 100))
	if len(got) != memorytag.MaxDocChars {
		t.Fatalf("expected %d chars, got %d", memorytag.MaxDocChars, len(got))
	}
	if strings.Contains(got, "a") {
		t.Errorf("tail truncation should drop the oldest text")
	}
}

func TestExtractDispatchesDocFilesToWordReader(t *testing.T) {
	e := newTestExtractor()
	var seen []string
	e.readDocx = func(path string) (string, error) {
		seen = append(seen, path)
		return "word text", nil
	}

	e.Extract(context.Background(), []string{"old.doc", "new.docx"}, "")
	if len(seen) != 2 {
		t.Errorf("expected both word formats dispatched, got %v", seen)
	}
}
