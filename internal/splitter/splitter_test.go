package splitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/lessonforge/internal/models"
)

func TestSplit(t *testing.T) {
	got, err := Split("Plan text ### Notes text ### Assignment text ### Record text")
	if err != nil {
		t.Fatal(err)
	}
	want := models.ArtifactSet{"Plan text", "Notes text", "Assignment text", "Record text"}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplit_trimsMultilineSections(t *testing.T) {
	text := "\n  Plan\nline 2  \n###\n\tNotes\n###\nAssignment\n###\nRecord\n\n"
	got, err := Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "Plan\nline 2" || got[1] != "Notes" || got[3] != "Record" {
		t.Errorf("got %q", got)
	}
}

func TestSplit_exactlyThreeDelimitersAlwaysFour(t *testing.T) {
	sections := []string{"a", "b b", "c\nc", "d"}
	for i := 0; i < 20; i++ {
		pad := strings.Repeat(" ", i)
		text := strings.Join(sections, pad+"###"+pad)
		got, err := Split(text)
		if err != nil {
			t.Fatalf("pad %d: %v", i, err)
		}
		for j, s := range sections {
			if got[j] != s {
				t.Errorf("pad %d section %d: got %q want %q", i, j, got[j], s)
			}
		}
	}
}

func TestSplit_malformed(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCount int
		wantEmpty int
	}{
		{"no delimiter", "just one blob", 1, -1},
		{"one delimiter", "Plan ### Notes", 2, -1},
		{"two delimiters", "a ### b ### c", 3, -1},
		{"too many", "a ### b ### c ### d ### e", 5, -1},
		{"leading delimiter", "### a ### b ### c", 4, 0},
		{"empty middle", "a ### ### c ### d", 4, 1},
		{"trailing empty", "a ### b ### c ###   ", 4, 3},
		{"empty input", "", 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.text)
			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if se.Count != tt.wantCount || se.Empty != tt.wantEmpty {
				t.Errorf("got count=%d empty=%d, want count=%d empty=%d", se.Count, se.Empty, tt.wantCount, tt.wantEmpty)
			}
			if got != (models.ArtifactSet{}) {
				t.Errorf("malformed input must not return sections: %q", got)
			}
			if se.Error() == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}
