// Package extract turns uploaded files into plain text for the advisory
// pipeline. Extraction runs once per upload: callers re-supply only new
// files, prior text arrives as the remembered document memory.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/pkg/memorytag"
)

// OCR reads text out of image bytes. The remote collaborator may be
// asynchronous internally; this contract is synchronous.
type OCR interface {
	Read(ctx context.Context, image []byte) (string, error)
}

// FileReader extracts text from one file of a known format. May fail on
// malformed files; the extractor isolates such failures per file.
type FileReader func(path string) (string, error)

type Extractor struct {
	ocr    OCR
	logger logger.ILogger

	// Per-format readers, replaceable in tests.
	readPDF  FileReader
	readDocx FileReader
}

func NewExtractor(ocr OCR, log logger.ILogger) *Extractor {
	return &Extractor{
		ocr:      ocr,
		logger:   log,
		readPDF:  ReadPDFText,
		readDocx: ReadDocxText,
	}
}

// Extract merges the text of newly uploaded files into the previously
// remembered text and enforces the character budget (tail kept). With no new
// files the previous memory passes through untouched. A file that cannot be
// read is logged and skipped; it never aborts the batch.
func (e *Extractor) Extract(ctx context.Context, filePaths []string, previousText string) string {
	if len(filePaths) == 0 {
		return previousText
	}

	var dump strings.Builder
	for _, path := range filePaths {
		text, err := e.extractFile(ctx, path)
		if err != nil {
			e.logger.Warn("extract", "file extraction failed, skipping", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		dump.WriteString(text)
	}

	combined := strings.TrimSpace(previousText + "\n" + dump.String())
	combined = memorytag.Truncate(combined, memorytag.MaxDocChars)

	e.logger.Info("extract", "documents extracted", map[string]interface{}{
		"files": len(filePaths),
		"chars": len(combined),
	})

	return combined
}

func (e *Extractor) extractFile(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case "pdf":
		return e.readPDF(path)
	case "jpg", "jpeg", "png":
		return e.extractImage(ctx, path)
	case "docx", "doc":
		return e.readDocx(path)
	default:
		e.logger.Warn("extract", "unsupported extension, skipping", map[string]interface{}{
			"path":      path,
			"extension": ext,
		})
		return "", nil
	}
}
