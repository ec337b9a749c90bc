package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// ReadDocxText extracts the paragraph and table text of a Word document.
func ReadDocxText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat document: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(block.String())
			sb.WriteString("\n")
		case *docx.Table:
			sb.WriteString(block.String())
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
