package models

import "fmt"

// ValidationError reports a required field missing or malformed at the store
// boundary. Fails fast, never retried.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// UnknownIDError reports an operation against an id absent from the store,
// including a tombstone that no longer redirects anywhere.
type UnknownIDError struct {
	ID string
}

func NewUnknownIDError(id string) *UnknownIDError {
	return &UnknownIDError{ID: id}
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown lead id '%s'", e.ID)
}

// RedirectedIDError reports a destructive operation against an id that was
// merged away. The caller holds a stale id; the record it wants lives on as
// WinnerID, and the operation must be retried against that id explicitly.
type RedirectedIDError struct {
	ID       string
	WinnerID string
}

func NewRedirectedIDError(id, winnerID string) *RedirectedIDError {
	return &RedirectedIDError{ID: id, WinnerID: winnerID}
}

func (e *RedirectedIDError) Error() string {
	return fmt.Sprintf("lead id '%s' was merged into '%s'", e.ID, e.WinnerID)
}

// MergeCycleError is a fatal internal assertion: resolving a merge redirect
// required more than one hop, which the merge invariant forbids. It signals a
// bug, never a retriable condition.
type MergeCycleError struct {
	ID      string
	Target  string
	Message string
}

func NewMergeCycleError(id, target, message string) *MergeCycleError {
	return &MergeCycleError{ID: id, Target: target, Message: message}
}

func (e *MergeCycleError) Error() string {
	return fmt.Sprintf("merge chain invariant violated for '%s' -> '%s': %s", e.ID, e.Target, e.Message)
}
