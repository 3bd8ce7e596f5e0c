package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("board was changed by someone else")
	ErrForbidden       = errors.New("admin role required")
	ErrUnauthenticated = errors.New("not signed in")
	ErrDuplicate       = errors.New("already exists")
	ErrInvalidInput    = errors.New("invalid input")
)

// AuthErrorKind classifies identity provider failures
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthUnconfirmed        AuthErrorKind = "unconfirmed"
	AuthDuplicate          AuthErrorKind = "duplicate"
	AuthUnavailable        AuthErrorKind = "unavailable"
	AuthInvalidToken       AuthErrorKind = "invalid_token"
	AuthInvalidInput       AuthErrorKind = "invalid_input"
)

// AuthError carries a human-readable message for the login screen
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds an AuthError with the standard message for kind
func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	msg := "An unexpected error occurred"
	switch kind {
	case AuthInvalidCredentials:
		msg = "Invalid login credentials"
	case AuthUnconfirmed:
		msg = "Email not confirmed"
	case AuthDuplicate:
		msg = "User already registered"
	case AuthUnavailable:
		msg = "Authentication service unavailable"
	case AuthInvalidToken:
		msg = "Invalid or expired token"
	case AuthInvalidInput:
		msg = "Invalid sign-up details"
		if err != nil {
			msg = err.Error()
		}
	}
	return &AuthError{Kind: kind, Message: msg, Err: err}
}

// QueryError wraps a storage failure with the operation and table
type QueryError struct {
	Op    string
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// SyncError wraps a failed push or pull
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means a missing row
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
