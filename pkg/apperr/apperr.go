// Package apperr defines the error taxonomy shared by the domain packages.
// Handlers map these to HTTP statuses; the simulation pipeline converts all
// of them into degraded completions rather than surfacing them.
package apperr

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError reports missing or unusable input: a required field,
// an empty base prompt, no active scenarios, and so on.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseError reports an LLM response whose JSON payload could not be
// extracted or decoded. Preview carries the head of the raw response for
// operator visibility.
type ParseError struct {
	Msg     string
	Preview string
}

func (e *ParseError) Error() string {
	if e.Preview == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Preview)
}

func Parse(msg, preview string) error {
	return &ParseError{Msg: msg, Preview: preview}
}

func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// UpstreamError wraps a failure of the LLM completion endpoint itself.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("llm upstream: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

func Upstream(err error) error {
	return &UpstreamError{Err: err}
}

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
