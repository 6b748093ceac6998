package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these are business logic errors that should be translated
// to appropriate HTTP status codes by the handler layer.
// Validation errors wrap ErrBadRequest and lookup failures wrap ErrNotFound,
// so handlers can classify them with errors.Is.

var (
	// Error kinds
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("not found")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Lookup errors
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrHuntNotFound       = fmt.Errorf("%w: hunt not found", ErrNotFound)
	ErrChallengeNotFound  = fmt.Errorf("%w: challenge not found", ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("%w: submission not found", ErrNotFound)

	// Submission validation errors
	ErrEmptySourceCode     = fmt.Errorf("%w: source code cannot be empty", ErrBadRequest)
	ErrLanguageRequired    = fmt.Errorf("%w: programming language must be specified", ErrBadRequest)
	ErrUnsupportedLanguage = fmt.Errorf("%w: programming language is not supported", ErrBadRequest)
	ErrLanguageNotAllowed  = fmt.Errorf("%w: programming language is not allowed for this challenge", ErrBadRequest)
	ErrNoTestCases         = fmt.Errorf("%w: challenge has no test cases", ErrBadRequest)
	ErrNotCodeChallenge    = fmt.Errorf("%w: challenge type must be CODING or BUGFIX for code submission", ErrBadRequest)
	ErrNotGameChallenge    = fmt.Errorf("%w: challenge type must be GAME to be awarded directly", ErrBadRequest)

	// Submission errors
	ErrSubmissionImmutable = errors.New("submissions cannot be modified")

	// Token errors
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
)

// DomainError wraps an error with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &DomainError{
		Err:     err,
		Message: message,
	}
}

// IsValidation reports whether err is a client-side validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsNotFound reports whether err is a lookup failure
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
