package models

import (
	"testing"
)

func doc() *UploadedDocument { return &UploadedDocument{Content: []byte("%PDF-1.4")} }

func TestGenerateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *GenerateRequest
		wantErr bool
	}{
		{"valid", &GenerateRequest{Title: "Fractions", Owner: "t@example.com", TeacherGuide: doc(), StudentBook: doc(), Scheme: doc()}, false},
		{"empty title", &GenerateRequest{Title: "  ", Owner: "t@example.com", TeacherGuide: doc(), StudentBook: doc(), Scheme: doc()}, true},
		{"empty owner", &GenerateRequest{Title: "Fractions", TeacherGuide: doc(), StudentBook: doc(), Scheme: doc()}, true},
		{"missing scheme", &GenerateRequest{Title: "Fractions", Owner: "t@example.com", TeacherGuide: doc(), StudentBook: doc()}, true},
		{"missing guide", &GenerateRequest{Title: "Fractions", Owner: "t@example.com", StudentBook: doc(), Scheme: doc()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateRequest_ValidateFillsFields(t *testing.T) {
	req := &GenerateRequest{Title: " Fractions ", Owner: "t@example.com", TeacherGuide: doc(), StudentBook: doc(), Scheme: doc()}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Title != "Fractions" {
		t.Errorf("title not trimmed: %q", req.Title)
	}
	for i, d := range req.Documents() {
		if d.Field != Fields[i] {
			t.Errorf("document %d field = %q, want %q", i, d.Field, Fields[i])
		}
	}
}

func TestLabel_KeyAndTitle(t *testing.T) {
	want := map[Label][2]string{
		LabelLessonPlan:  {"lessonPlan", "Lesson Plan"},
		LabelLessonNotes: {"lessonNotes", "Lesson Notes"},
		LabelAssignment:  {"assignment", "Assignment"},
		LabelDailyRecord: {"dailyRecord", "Daily Record"},
	}
	for _, l := range Labels {
		if l.Key() != want[l][0] || l.Title() != want[l][1] {
			t.Errorf("%s: got key=%q title=%q", l, l.Key(), l.Title())
		}
	}
}

func TestNewGenerateResponse(t *testing.T) {
	var artifacts []RenderedArtifact
	for _, l := range Labels {
		artifacts = append(artifacts, RenderedArtifact{
			Label: l,
			DOCX:  FileRef{URL: "/uploads/" + string(l) + ".docx"},
			PDF:   FileRef{URL: "/uploads/" + string(l) + ".pdf"},
		})
	}
	resp := NewGenerateResponse("abc", artifacts)
	if resp.LessonID != "abc" {
		t.Errorf("lesson id: %q", resp.LessonID)
	}
	if resp.LessonPlan.DOCX != "/uploads/lesson-plan.docx" || resp.DailyRecord.PDF != "/uploads/daily-record.pdf" {
		t.Errorf("unexpected links: %+v", resp)
	}
	if resp.Assignment.DOCX == "" || resp.LessonNotes.PDF == "" {
		t.Errorf("missing links: %+v", resp)
	}
}
