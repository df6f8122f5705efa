package service

import "fmt"

// Typed workflow errors. Handlers map these onto HTTP status codes; the
// service never writes status codes itself.

// ValidationError marks a malformed or incomplete request payload.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing document, template, employee or line.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func notFoundErrorf(format string, args ...interface{}) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError marks an actor not entitled to the requested transition.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func authorizationErrorf(format string, args ...interface{}) error {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}

// StateError marks a transition attempted against a document or line that is
// not in a state admitting it: acting on a non-active line, deciding twice,
// recalling after a decision.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

func stateErrorf(format string, args ...interface{}) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError marks an optimistic version mismatch caused by a concurrent
// mutation. The caller must re-read and retry; the server never retries.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func conflictErrorf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}
