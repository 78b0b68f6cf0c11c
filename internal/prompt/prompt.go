// Package prompt composes the generation request sent to the completion service.
package prompt

import (
	"errors"
	"strings"

	"github.com/hyperjump/lessonforge/pkg/utils"
)

// Delimiter separates the four sections in the completion output.
const Delimiter = "###"

// DefaultMaxChars bounds each source text embedded in the prompt.
const DefaultMaxChars = 3000

// ErrEmptyTitle is returned when the lesson title is blank.
var ErrEmptyTitle = errors.New("lesson title is empty")

// instructions asks for the four sections in the order the splitter maps them to labels.
const instructions = `Based on the above, generate:
1. Lesson Plan
2. Lesson Notes
3. Homework/Assignment
4. Daily Class Record
Return exactly these four outputs in this order. Separate them with a line containing only ` + Delimiter + `.
Do not put ` + Delimiter + ` before the first output or after the last one, and do not use ` + Delimiter + ` anywhere else.`

// Sources holds the extracted text of the three uploads.
type Sources struct {
	TeacherGuide string
	StudentBook  string
	Scheme       string
}

// Composer builds prompts with a fixed per-source character budget.
type Composer struct {
	maxChars int
}

// NewComposer returns a Composer truncating each source to maxChars characters.
// maxChars <= 0 selects DefaultMaxChars.
func NewComposer(maxChars int) *Composer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Composer{maxChars: maxChars}
}

// MaxChars returns the per-source character budget.
func (c *Composer) MaxChars() int {
	return c.maxChars
}

// Compose returns the prompt for title and src. Each source is cut to its first
// MaxChars characters; shorter sources are embedded unchanged.
func (c *Composer) Compose(title string, src Sources) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	var b strings.Builder
	b.WriteString("Lesson Title: ")
	b.WriteString(title)
	b.WriteString("\nTeacher Guide: ")
	b.WriteString(c.Truncate(src.TeacherGuide))
	b.WriteString("\nStudent Book: ")
	b.WriteString(c.Truncate(src.StudentBook))
	b.WriteString("\nScheme of Work: ")
	b.WriteString(c.Truncate(src.Scheme))
	b.WriteString("\n")
	b.WriteString(instructions)
	return b.String(), nil
}

// Truncate returns the first MaxChars characters of s.
func (c *Composer) Truncate(s string) string {
	return utils.Prefix(s, c.maxChars)
}
