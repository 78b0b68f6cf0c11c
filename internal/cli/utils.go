// Package cli provides output helpers for the lessonforge command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text", "json", or "" (text).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteGenerateResult writes the links returned by a generation run.
func WriteGenerateResult(w io.Writer, resp *models.GenerateResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nLesson %s generated\n\n", resp.LessonID)
	links := []models.ArtifactLinks{resp.LessonPlan, resp.LessonNotes, resp.Assignment, resp.DailyRecord}
	for i, l := range links {
		fmt.Fprintf(w, "%-13s DOCX: %s\n", models.Labels[i].Title(), l.DOCX)
		fmt.Fprintf(w, "%-13s PDF:  %s\n", "", l.PDF)
	}
	return nil
}

// WriteLessons writes lesson records, most recent first as given.
func WriteLessons(w io.Writer, lessons []*models.LessonRecord, format OutputFormat) error {
	if format == OutputJSON {
		if lessons == nil {
			lessons = []*models.LessonRecord{}
		}
		return writeJSON(w, lessons)
	}
	fmt.Fprintf(w, "\nFound %d lessons\n\n", len(lessons))
	for _, l := range lessons {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%s  %s\n", l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Title)
		fmt.Fprintf(w, "ID: %s\n", l.ID)
		fmt.Fprintf(w, "Plan: %s\n", TruncateWords(oneLine(l.Outputs.LessonPlan), 20))
		fmt.Fprintln(w)
	}
	return nil
}

// WriteStatus writes the server status document.
func WriteStatus(w io.Writer, status map[string]any, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Lessons: %v\n", status["lessons"])
	if n, ok := status["content_files"]; ok {
		fmt.Fprintf(w, "Content files: %v\n", n)
	}
	if b, ok := status["disk_usage_bytes"].(float64); ok {
		fmt.Fprintf(w, "Disk usage: %s\n", FormatBytes(int64(b)))
	}
	if cfg, ok := status["config"].(map[string]any); ok {
		for _, k := range []string{"storage_driver", "content_backend", "completion_provider", "completion_model"} {
			if v, ok := cfg[k]; ok {
				fmt.Fprintf(w, "%s: %v\n", k, v)
			}
		}
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return utils.Truncate(strings.Join(words[:maxWords], " "), 160) + "..."
}
