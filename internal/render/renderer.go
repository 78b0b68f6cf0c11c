// Package render turns generated sections into DOCX and PDF files in the content store.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/lessonforge/internal/content"
	"github.com/hyperjump/lessonforge/internal/fileid"
	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/pkg/utils"
)

// ErrEmptyText is returned when a section has no printable text.
var ErrEmptyText = errors.New("section text is empty")

// Error reports a failure to produce or store one artifact.
type Error struct {
	Label models.Label
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.Label, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Renderer writes each section as a DOCX and a PDF.
type Renderer struct {
	store  content.Store
	logger *zap.Logger
}

// NewRenderer returns a Renderer that writes to store.
func NewRenderer(store content.Store, logger *zap.Logger) *Renderer {
	return &Renderer{store: store, logger: utils.OrNop(logger)}
}

// Render encodes text in both formats and stores the two files under fresh
// names. Either both files exist afterwards or neither does.
func (r *Renderer) Render(ctx context.Context, label models.Label, text string) (models.RenderedArtifact, error) {
	artifact := models.RenderedArtifact{Label: label, Text: text}
	if strings.TrimSpace(text) == "" {
		return artifact, &Error{Label: label, Err: ErrEmptyText}
	}

	docx, err := encodeDOCX(text)
	if err != nil {
		return artifact, &Error{Label: label, Err: fmt.Errorf("encode docx: %w", err)}
	}
	pdf, err := encodePDF(text)
	if err != nil {
		return artifact, &Error{Label: label, Err: fmt.Errorf("encode pdf: %w", err)}
	}

	base := fileid.New(string(label))
	artifact.DOCX, err = r.store.Put(ctx, base+".docx", docx)
	if err != nil {
		return artifact, &Error{Label: label, Err: err}
	}
	artifact.PDF, err = r.store.Put(ctx, base+".pdf", pdf)
	if err != nil {
		r.delete(artifact.DOCX.Path)
		return models.RenderedArtifact{Label: label, Text: text}, &Error{Label: label, Err: err}
	}

	r.logger.Debug("Rendered artifact",
		zap.String("label", string(label)),
		zap.String("docx", artifact.DOCX.Path),
		zap.String("pdf", artifact.PDF.Path),
		zap.Int("docx_bytes", len(docx)),
		zap.Int("pdf_bytes", len(pdf)))
	return artifact, nil
}

// Remove deletes both files of a previously rendered artifact.
func (r *Renderer) Remove(artifact models.RenderedArtifact) {
	for _, ref := range []models.FileRef{artifact.DOCX, artifact.PDF} {
		if ref.Path != "" {
			r.delete(ref.Path)
		}
	}
}

// delete runs with its own context so cleanup still happens after the
// request context is canceled.
func (r *Renderer) delete(key string) {
	if err := r.store.Delete(context.Background(), key); err != nil {
		r.logger.Warn("Failed to delete artifact", zap.String("path", key), zap.Error(err))
	}
}
