// Package e2e provides end-to-end tests that drive the HTTP API with a mock completion service.
package e2e

import (
	"net/http"
	"strings"
)

// Scenario is one generation request and the outcome the API must produce.
type Scenario struct {
	Name       string
	Title      string
	Owner      string
	Sources    [3]string // teacher guide, student book, scheme texts; "" sends a non-PDF upload
	Completion string

	WantStatus   int
	WantKind     string // error kind for failing scenarios
	WantSections [4]string
}

// Failing reports whether the scenario expects an error response.
func (s Scenario) Failing() bool {
	return s.WantStatus != http.StatusOK
}

// BuildScenarios returns the end-to-end scenarios: the successful fractions
// lesson plus the failure modes that must leave no record and no files.
func BuildScenarios() []Scenario {
	return []Scenario{
		{
			Name:         "fractions lesson",
			Title:        "Fractions Lesson",
			Owner:        "teacher@school.test",
			Sources:      [3]string{"Topic A", "Topic B", "Topic C"},
			Completion:   "Plan text ### Notes text ### Assignment text ### Record text",
			WantStatus:   http.StatusOK,
			WantSections: [4]string{"Plan text", "Notes text", "Assignment text", "Record text"},
		},
		{
			Name:    "multiline sections",
			Title:   "Photosynthesis",
			Owner:   "biology@school.test",
			Sources: [3]string{"Chlorophyll", "Light reactions", "Week 3"},
			Completion: "Objectives:\nExplain photosynthesis\n###\nPlants convert light into energy.\n" +
				"###\n1. Label a leaf\n2. Define chlorophyll\n###\nAttendance: 28",
			WantStatus: http.StatusOK,
			WantSections: [4]string{
				"Objectives:\nExplain photosynthesis",
				"Plants convert light into energy.",
				"1. Label a leaf\n2. Define chlorophyll",
				"Attendance: 28",
			},
		},
		{
			Name:       "one delimiter",
			Title:      "Fractions Lesson",
			Owner:      "teacher@school.test",
			Sources:    [3]string{"Topic A", "Topic B", "Topic C"},
			Completion: "Plan text ### Notes text",
			WantStatus: http.StatusBadGateway,
			WantKind:   "split",
		},
		{
			Name:       "empty section",
			Title:      "Fractions Lesson",
			Owner:      "teacher@school.test",
			Sources:    [3]string{"Topic A", "Topic B", "Topic C"},
			Completion: "Plan text ### ### Assignment text ### Record text",
			WantStatus: http.StatusBadGateway,
			WantKind:   "split",
		},
		{
			Name:       "unreadable upload",
			Title:      "Fractions Lesson",
			Owner:      "teacher@school.test",
			Sources:    [3]string{"Topic A", "", "Topic C"},
			Completion: "Plan text ### Notes text ### Assignment text ### Record text",
			WantStatus: http.StatusUnprocessableEntity,
			WantKind:   "extraction",
		},
	}
}

// Joined returns the expected sections joined the way the splitter sees them.
func (s Scenario) Joined() string {
	return strings.Join(s.WantSections[:], " ### ")
}
