package models

import (
	"fmt"
	"strings"
)

// Field identifies which of the three uploads a document is.
type Field string

const (
	FieldTeacherGuide Field = "teacherGuide"
	FieldStudentBook  Field = "studentBook"
	FieldScheme       Field = "scheme"
)

// Fields lists the upload fields in prompt order.
var Fields = [3]Field{FieldTeacherGuide, FieldStudentBook, FieldScheme}

// UploadedDocument is one uploaded source file, owned by the request that carried it.
type UploadedDocument struct {
	Field    Field
	Filename string
	Path     string
	Content  []byte
}

// GenerateRequest is the input of one generation run.
type GenerateRequest struct {
	Title        string
	Owner        string
	TeacherGuide *UploadedDocument
	StudentBook  *UploadedDocument
	Scheme       *UploadedDocument
}

// Documents returns the three uploads in Fields order.
func (r *GenerateRequest) Documents() []*UploadedDocument {
	return []*UploadedDocument{r.TeacherGuide, r.StudentBook, r.Scheme}
}

// Validate trims the title and owner and checks that all three uploads are present.
func (r *GenerateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Owner = strings.TrimSpace(r.Owner)
	if r.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if r.Owner == "" {
		return fmt.Errorf("teacherEmail cannot be empty")
	}
	for i, doc := range r.Documents() {
		if doc == nil {
			return fmt.Errorf("%s upload is required", Fields[i])
		}
		if doc.Field == "" {
			doc.Field = Fields[i]
		}
	}
	return nil
}
