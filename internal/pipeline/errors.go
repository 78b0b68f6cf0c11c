package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hyperjump/lessonforge/internal/models"
)

// Kind classifies why a run failed.
type Kind string

const (
	KindRequest    Kind = "request"
	KindExtraction Kind = "extraction"
	KindPrompt     Kind = "prompt"
	KindCompletion Kind = "completion"
	KindSplit      Kind = "split"
	KindRender     Kind = "render"
	KindPersist    Kind = "persist"
)

// Error is the only error type Run returns. Stage is the state the run was in
// when it failed; Field names the upload for extraction failures.
type Error struct {
	Kind  Kind
	Stage State
	Field models.Field
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s failed while %s %s: %v", e.Kind, e.Stage, e.Field, e.Err)
	}
	return fmt.Sprintf("%s failed while %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind onto a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindRequest:
		return http.StatusBadRequest
	case KindExtraction:
		return http.StatusUnprocessableEntity
	case KindCompletion, KindSplit:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var perr *Error
	ok := errors.As(err, &perr)
	return perr, ok
}
