// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoSession        = errors.New("no session files found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrTimeout          = errors.New("operation timed out")
	ErrUnparseable      = errors.New("unparseable record")
	ErrStepFailed       = errors.New("conversation step failed")
	ErrInvalidRequest   = errors.New("invalid trade request")
	ErrNoMatch          = errors.New("no matching button")
	ErrNoResponse       = errors.New("no response from bot")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StepError represents the failure of one step of a bot conversation.
type StepError struct {
	Step   string
	State  string
	Bot    string
	Reason string
	Err    error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step error [%s] %s at %s: %s: %v", e.Bot, e.Step, e.State, e.Reason, e.Err)
	}
	return fmt.Sprintf("step error [%s] %s at %s: %s", e.Bot, e.Step, e.State, e.Reason)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is makes every StepError match ErrStepFailed.
func (e *StepError) Is(target error) bool {
	return target == ErrStepFailed
}

// NewStepError creates a new StepError.
func NewStepError(step, state, bot, reason string, err error) *StepError {
	return &StepError{
		Step:   step,
		State:  state,
		Bot:    bot,
		Reason: reason,
		Err:    err,
	}
}

// FeedError represents a transient error talking to the transaction feed.
type FeedError struct {
	Op     string
	Status int
	Err    error
}

func (e *FeedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed error [%s]: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("feed error [%s]: %v", e.Op, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new FeedError.
func NewFeedError(op string, status int, err error) *FeedError {
	return &FeedError{
		Op:     op,
		Status: status,
		Err:    err,
	}
}

// RecordError reports a feed record that is missing or has a malformed
// required field.
type RecordError struct {
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record error: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("record error: field %q missing", e.Field)
}

func (e *RecordError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnparseable
}

// Is makes every RecordError match ErrUnparseable.
func (e *RecordError) Is(target error) bool {
	return target == ErrUnparseable
}

// NewRecordError creates a new RecordError.
func NewRecordError(field string, err error) *RecordError {
	return &RecordError{
		Field: field,
		Err:   err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
