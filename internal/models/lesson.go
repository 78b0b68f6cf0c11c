// Package models defines core data structures for uploads, generated artifacts, and lesson records.
package models

import "time"

// SourceFiles holds the stored paths of the three uploads a lesson was generated from.
type SourceFiles struct {
	TeacherGuide string `json:"teacherGuide" db:"teacher_guide"`
	StudentBook  string `json:"studentBook" db:"student_book"`
	Scheme       string `json:"scheme" db:"scheme"`
}

// Outputs holds the four generated section texts.
type Outputs struct {
	LessonPlan  string `json:"lessonPlan" db:"lesson_plan"`
	LessonNotes string `json:"lessonNotes" db:"lesson_notes"`
	Assignment  string `json:"assignment" db:"assignment"`
	DailyRecord string `json:"dailyRecord" db:"daily_record"`
}

// LessonRecord is the persisted aggregate of one completed generation run.
type LessonRecord struct {
	ID        string      `json:"id" db:"id"`
	Owner     string      `json:"teacherEmail" db:"owner"`
	Title     string      `json:"title" db:"title"`
	Files     SourceFiles `json:"files"`
	Outputs   Outputs     `json:"outputs"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// OutputsFromSet maps an artifact set onto the record's output fields.
func OutputsFromSet(set ArtifactSet) Outputs {
	return Outputs{
		LessonPlan:  set[0],
		LessonNotes: set[1],
		Assignment:  set[2],
		DailyRecord: set[3],
	}
}
