package models

// Label names one of the four generated sections. The value doubles as the
// file name prefix of rendered artifacts.
type Label string

const (
	LabelLessonPlan  Label = "lesson-plan"
	LabelLessonNotes Label = "lesson-notes"
	LabelAssignment  Label = "assignment"
	LabelDailyRecord Label = "daily-record"
)

// SectionCount is the number of sections a completion must yield.
const SectionCount = 4

// Labels lists the section labels in the order the completion returns them.
var Labels = [SectionCount]Label{LabelLessonPlan, LabelLessonNotes, LabelAssignment, LabelDailyRecord}

// Key returns the JSON key used for the label in API responses.
func (l Label) Key() string {
	switch l {
	case LabelLessonPlan:
		return "lessonPlan"
	case LabelLessonNotes:
		return "lessonNotes"
	case LabelAssignment:
		return "assignment"
	case LabelDailyRecord:
		return "dailyRecord"
	default:
		return string(l)
	}
}

// Title returns a human-readable heading for the label.
func (l Label) Title() string {
	switch l {
	case LabelLessonPlan:
		return "Lesson Plan"
	case LabelLessonNotes:
		return "Lesson Notes"
	case LabelAssignment:
		return "Assignment"
	case LabelDailyRecord:
		return "Daily Record"
	default:
		return string(l)
	}
}

// ArtifactSet is the split completion: one trimmed, non-empty text per label, in Labels order.
type ArtifactSet [SectionCount]string

// FileRef addresses one stored file: Path is the content-store key, URL is what callers fetch.
type FileRef struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// RenderedArtifact is one section written out as a DOCX and a PDF.
type RenderedArtifact struct {
	Label Label   `json:"label"`
	Text  string  `json:"-"`
	DOCX  FileRef `json:"docx"`
	PDF   FileRef `json:"pdf"`
}

// ArtifactLinks is the per-label pair of URLs returned to API callers.
type ArtifactLinks struct {
	DOCX string `json:"docx"`
	PDF  string `json:"pdf"`
}

// GenerateResponse is the body returned for a successful generation run.
type GenerateResponse struct {
	LessonID    string        `json:"lessonId"`
	LessonPlan  ArtifactLinks `json:"lessonPlan"`
	LessonNotes ArtifactLinks `json:"lessonNotes"`
	Assignment  ArtifactLinks `json:"assignment"`
	DailyRecord ArtifactLinks `json:"dailyRecord"`
}

// NewGenerateResponse builds the API response from the rendered artifacts, which must be in Labels order.
func NewGenerateResponse(lessonID string, artifacts []RenderedArtifact) *GenerateResponse {
	resp := &GenerateResponse{LessonID: lessonID}
	for _, a := range artifacts {
		links := ArtifactLinks{DOCX: a.DOCX.URL, PDF: a.PDF.URL}
		switch a.Label {
		case LabelLessonPlan:
			resp.LessonPlan = links
		case LabelLessonNotes:
			resp.LessonNotes = links
		case LabelAssignment:
			resp.Assignment = links
		case LabelDailyRecord:
			resp.DailyRecord = links
		}
	}
	return resp
}
