package input

import (
	"fmt"

	"github.com/pkg/errors"
)

// UsageError indicates that the command line as a whole was malformed.
// The caller prints usage in addition to the message.
type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

// ParseError indicates a request item that could not be tokenized or
// classified.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("'%s' %s", e.Token, e.Reason)
}

func newParseError(token, reason string) error {
	return errors.WithStack(&ParseError{Token: token, Reason: reason})
}

// JSONValueError indicates that the value of a ':=' item is not valid JSON.
type JSONValueError struct {
	Token string
	Err   error
}

func (e *JSONValueError) Error() string {
	return fmt.Sprintf("invalid JSON at '%s': %v", e.Token, e.Err)
}

// FileNotFoundError indicates that a '@'-referenced file does not exist or
// cannot be read.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("cannot read '%s': %v", e.Path, e.Err)
}

// ExclusivityError indicates that two body sources were combined in one
// request, e.g. redirected stdin together with a file upload.
type ExclusivityError struct {
	Message string
}

func (e *ExclusivityError) Error() string {
	return e.Message
}

func newExclusivityError(message string) error {
	return errors.WithStack(&ExclusivityError{Message: message})
}

// ModeConflictError indicates that an explicit body-mode flag contradicts
// the kind of an accumulated item.
type ModeConflictError struct {
	Message string
}

func (e *ModeConflictError) Error() string {
	return e.Message
}

func newModeConflictError(message string) error {
	return errors.WithStack(&ModeConflictError{Message: message})
}
