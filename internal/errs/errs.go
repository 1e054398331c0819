// Package errs holds the error taxonomy: Validation, NotFound, and
// Conflict. HandlerFailure and infra errors are plain wrapped errors —
// they don't need a sentinel type because nothing outside the Worker
// Pool branches on them.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError aggregates every problem found with a submission.
type ValidationError struct {
	Errors []error
}

func (v *ValidationError) Add(err error) {
	v.Errors = append(v.Errors, err)
}

func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationError) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", errors.Join(v.Errors...))
}

// NotFoundError reports that an id has no corresponding record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConflictError reports a failed compare-and-set: the record was not in
// the expected state when the caller attempted to transition it.
type ConflictError struct {
	ID       string
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("job %s: expected status %s, found %s", e.ID, e.Expected, e.Actual)
}

func NewConflict(id, expected, actual string) error {
	return &ConflictError{ID: id, Expected: expected, Actual: actual}
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
