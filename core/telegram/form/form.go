package form

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoSession signals that no form is active for the key. Callers treat
	// it as informational and fall through to their normal routing.
	ErrNoSession = errors.New("form: no active session")

	// ErrNoFields rejects a definition without fields.
	ErrNoFields = errors.New("form: definition has no fields")

	// ErrNoCompletion rejects a definition without a completion callback.
	ErrNoCompletion = errors.New("form: definition has no completion")

	errEmptyInput = errors.New("empty input")
)

// Key identifies one conversation. Two users in the same group chat hold
// independent sessions, as does one user across two chats.
type Key struct {
	ChatID int64
	UserID int64
}

// CompleteFunc consumes the fully collected values of a finished form. It is
// invoked exactly once per session and sees only values collected through
// Submit.
type CompleteFunc func(ctx context.Context, values *Values) error

// Field is a single form step.
type Field struct {
	// Name keys the collected value.
	Name string
	// Prompt is shown to the user when the field becomes current.
	Prompt string
	// Validate normalizes raw input or rejects it with a user-visible error.
	// When nil, any non-empty trimmed input is accepted as-is.
	Validate func(raw string) (string, error)
}

// Definition describes a form: its name, the ordered fields to collect, and
// the completion to run once every field has a value.
type Definition struct {
	Name       string
	Fields     []Field
	OnComplete CompleteFunc
}

// Prompt tells the caller which field to ask for next.
type Prompt struct {
	Field string
	Text  string
}

// Result is the outcome of a Submit call.
type Result struct {
	// Form names the definition the session was started with.
	Form string
	// Done reports that the final field was accepted and OnComplete ran.
	Done bool
	// Next prompts for the following field when Done is false.
	Next Prompt
	// Values holds the full collected mapping when Done is true.
	Values *Values
}

// InvalidInputError reports a rejected value. The session is left exactly as
// it was; Prompt repeats the current field so the caller can re-ask.
type InvalidInputError struct {
	Field  string
	Prompt Prompt
	Err    error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("form: invalid input for %q: %v", e.Field, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// Code classifies the error for handler summaries.
func (e *InvalidInputError) Code() string { return "invalid_input" }

// CompletionError reports a failed OnComplete. The session is already removed
// when it is returned; the collected values are not resubmitted.
type CompletionError struct {
	Form string
	Err  error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("form: completion of %q failed: %v", e.Form, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Code classifies the error for handler summaries.
func (e *CompletionError) Code() string { return "completion_failed" }
