// Package extract provides text extraction from uploaded lesson sources and rendered documents.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for content that is not in a format the extractor reads.
var ErrUnsupported = errors.New("unsupported document format")

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of a PDF held in content. Content that does not parse as a
// PDF yields an error wrapping ErrUnsupported or the parser's error.
// A PDF with no text layer returns an empty string and no error.
func (e *Extractor) Extract(ctx context.Context, content []byte) (string, error) {
	return extractPDF(ctx, content)
}

// ExtractFile reads the file at path and extracts its text based on the extension.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(ctx, content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(ctx, content)
	case ".docx":
		return extractDOCX(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}
