// Package splitter partitions a completion into the four lesson sections.
package splitter

import (
	"fmt"
	"strings"

	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/internal/prompt"
)

// Error reports a completion that did not yield exactly four non-empty sections.
type Error struct {
	Count int // pieces found after splitting
	Empty int // index of the first empty piece, or -1
}

func (e *Error) Error() string {
	if e.Empty >= 0 {
		return fmt.Sprintf("section %d (%s) is empty", e.Empty+1, models.Labels[e.Empty].Title())
	}
	return fmt.Sprintf("expected %d sections separated by %q, got %d", models.SectionCount, prompt.Delimiter, e.Count)
}

// Split divides text on the section delimiter, trims each piece, and returns
// them in label order. Any count other than four, or any empty piece, is an *Error.
func Split(text string) (models.ArtifactSet, error) {
	var set models.ArtifactSet
	pieces := strings.Split(text, prompt.Delimiter)
	if len(pieces) != models.SectionCount {
		return set, &Error{Count: len(pieces), Empty: -1}
	}
	for i, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			return models.ArtifactSet{}, &Error{Count: len(pieces), Empty: i}
		}
		set[i] = p
	}
	return set, nil
}
