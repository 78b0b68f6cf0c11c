package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock is a deterministic Client for tests and local runs. When Response is
// empty it answers with four sections derived from the prompt's title line.
type Mock struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

// NewMock returns a Mock that always answers with response.
func NewMock(response string) *Mock {
	return &Mock{Response: response}
}

// Complete records the prompt and returns the configured response or error.
func (m *Mock) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	title := strings.TrimPrefix(strings.SplitN(prompt, "\n", 2)[0], "Lesson Title: ")
	return fmt.Sprintf("Lesson plan for %[1]s\n###\nLesson notes for %[1]s\n###\nAssignment for %[1]s\n###\nDaily record for %[1]s", title), nil
}

// Calls returns how many times Complete was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of the prompts received so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
