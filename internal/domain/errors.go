package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validation messages.
const (
	MsgBlank   = "can't be blank"
	MsgInvalid = "is invalid"
	MsgTaken   = "is already taken"
)

// ValidationError reports field-level constraint violations keyed by field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AuthReason distinguishes authentication failures.
type AuthReason string

const (
	TokenInvalid       AuthReason = "token_invalid"
	TokenExpired       AuthReason = "token_expired"
	CredentialsMissing AuthReason = "credentials_missing"
	CredentialsInvalid AuthReason = "credentials_invalid"
)

// AuthError is an authentication failure. Two AuthErrors match under
// errors.Is when their reasons are equal.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Reason == e.Reason
}

var (
	ErrTokenInvalid       = &AuthError{Reason: TokenInvalid}
	ErrTokenExpired       = &AuthError{Reason: TokenExpired}
	ErrCredentialsMissing = &AuthError{Reason: CredentialsMissing}
	ErrCredentialsInvalid = &AuthError{Reason: CredentialsInvalid}
)

var (
	// ErrNotFound means an identifier did not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller does not own the resource it is mutating.
	ErrForbidden = errors.New("forbidden action")
)

// NotFound wraps ErrNotFound with the kind of record that was missing.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}
