package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the ATS client packages
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbiddenRole      = errors.New("role not permitted")

	// Token errors
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrTokenExpired   = errors.New("token expired")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrMalformedSession = errors.New("malformed session")

	// Transport and response errors
	ErrTransport         = errors.New("transport error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrServer            = errors.New("server error")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
