package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docintake/internal/config"
)

const mimePDF = "application/pdf"

// ErrExtraction marks a document whose bytes could not be turned into text.
var ErrExtraction = errors.New("text extraction failed")

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// TextExtractor parses structured PDFs directly and runs OCR on raster images.
// Any other type yields an "[unsupported]" placeholder instead of an error.
type TextExtractor struct {
	ocr *OCR
	log *zap.Logger
}

// New returns a TextExtractor that shells out to tesseract for images.
func New(cfg config.OCRConfig, log *zap.Logger) *TextExtractor {
	return &TextExtractor{ocr: NewOCR(cfg, NewExecRunner(log)), log: log}
}

// NewWithOCR is New with an explicit OCR engine.
func NewWithOCR(ocr *OCR, log *zap.Logger) *TextExtractor {
	return &TextExtractor{ocr: ocr, log: log}
}

var _ Extractor = (*TextExtractor)(nil)

// Extract dispatches on the declared MIME type.
func (e *TextExtractor) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mt := NormalizeMime(mimeType)
	switch {
	case mt == mimePDF:
		text, err := extractPDF(data)
		if err != nil {
			e.log.Warn("pdf_extraction_failed", zap.Int("bytes", len(data)), zap.Error(err))
			return "", fmt.Errorf("%w: pdf: %v", ErrExtraction, err)
		}
		return text, nil
	case strings.HasPrefix(mt, "image/"):
		return e.ocr.Recognize(ctx, data)
	default:
		return Placeholder(mt), nil
	}
}

// Placeholder is the text substituted for types that have no extractor.
func Placeholder(mimeType string) string {
	return fmt.Sprintf("[unsupported] Text extraction is not supported for %s.", mimeType)
}

// IsPlaceholder reports whether text came from Placeholder.
func IsPlaceholder(text string) bool {
	return strings.HasPrefix(text, "[unsupported] ")
}

// NormalizeMime lowercases a MIME type and drops any parameters.
func NormalizeMime(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
