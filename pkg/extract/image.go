package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/disintegration/imaging"
)

// extractImage OCRs an image file. The image is grayscaled and binarized
// first, which helps the reader on photographed documents; if the cleaned
// image yields nothing the original bytes are sent as-is.
func (e *Extractor) extractImage(ctx context.Context, path string) (string, error) {
	if e.ocr == nil {
		return "", errors.New("ocr client is not configured")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	if cleaned, err := binarize(raw); err == nil {
		text, err := e.ocr.Read(ctx, cleaned)
		if err == nil && strings.TrimSpace(text) != "" {
			return text + "\n", nil
		}
	}

	text, err := e.ocr.Read(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("failed to ocr image: %w", err)
	}

	return text + "\n", nil
}

// binarize grayscales the image and thresholds it at the mean luminance,
// re-encoded as PNG.
func binarize(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	gray := imaging.Grayscale(img)

	var sum uint64
	var count uint64
	for i := 0; i < len(gray.Pix); i += 4 {
		sum += uint64(gray.Pix[i])
		count++
	}
	if count == 0 {
		return nil, errors.New("empty image")
	}
	threshold := uint8(sum / count)

	for i := 0; i < len(gray.Pix); i += 4 {
		v := uint8(0)
		if gray.Pix[i] > threshold {
			v = 255
		}
		gray.Pix[i] = v
		gray.Pix[i+1] = v
		gray.Pix[i+2] = v
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}
