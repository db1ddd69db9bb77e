package config

import (
	"errors"
	"fmt"
)

// ErrorClass classifies configuration problems.
type ErrorClass string

const (
	// ErrorClassSyntax is text that cannot be split into sections and keys.
	// Syntax errors abort Parse.
	ErrorClassSyntax ErrorClass = "syntax"

	// ErrorClassSemantic is a well-formed declaration that does not make
	// sense, e.g. a required attribute missing from the Attributes list.
	ErrorClassSemantic ErrorClass = "semantic"

	// ErrorClassCoercion is a value that does not convert to the requested type.
	ErrorClassCoercion ErrorClass = "coercion"
)

// ErrUnknownSection is returned when a section is not declared.
var ErrUnknownSection = errors.New("unknown config section")

// Error is a classified configuration error.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Line is the 1-based line number in the configuration text, if known.
	Line int `json:"line,omitempty"`

	// Text is the offending line.
	Text string `json:"text,omitempty"`

	// Section is the section being processed, if any.
	Section string `json:"section,omitempty"`

	// Key is the key being processed, if any.
	Key string `json:"key,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Line > 0 {
		msg = fmt.Sprintf("[%s] line %d: %s", e.Class, e.Line, e.Message)
	}
	if e.Section != "" && e.Key != "" {
		msg += fmt.Sprintf(" (section=%s, key=%s)", e.Section, e.Key)
	} else if e.Section != "" {
		msg += fmt.Sprintf(" (section=%s)", e.Section)
	}
	if e.Text != "" {
		msg += fmt.Sprintf(": %q", e.Text)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

func newSyntaxError(line int, text, message string) *Error {
	return &Error{
		Class:   ErrorClassSyntax,
		Message: message,
		Line:    line,
		Text:    text,
	}
}

// IsSyntax reports whether err is a configuration syntax error.
func IsSyntax(err error) bool {
	return hasClass(err, ErrorClassSyntax)
}

// IsSemantic reports whether err is a semantic configuration error.
func IsSemantic(err error) bool {
	return hasClass(err, ErrorClassSemantic)
}

// IsCoercion reports whether err is a value conversion error.
func IsCoercion(err error) bool {
	return hasClass(err, ErrorClassCoercion)
}

func hasClass(err error, class ErrorClass) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// Warning is a non-fatal configuration problem. Warnings are logged and
// resolved by a fallback (skip the line, ignore the name, drop the value).
type Warning struct {
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	switch {
	case w.Line > 0:
		return fmt.Sprintf("line %d [%s]: %s", w.Line, w.Section, w.Message)
	case w.Section != "":
		return fmt.Sprintf("[%s]: %s", w.Section, w.Message)
	}
	return w.Message
}
