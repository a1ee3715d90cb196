package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeResolver        ErrorType = "resolver_failure"
	ErrorTypeStale           ErrorType = "stale_state"
	ErrorTypeInternal        ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Session errors
	ErrInvalidSession = NewDomainError(ErrorTypeUnauthenticated, "missing or invalid session", nil)
	ErrSessionExpired = NewDomainError(ErrorTypeUnauthenticated, "session expired", nil)

	// Access errors
	ErrNotPermitted = NewDomainError(ErrorTypeUnauthorized, "actor does not hold the required capability", nil)

	// Resolver errors
	ErrSubscriptionUnavailable = NewDomainError(ErrorTypeResolver, "subscription backend unavailable", nil)
	ErrModulesUnavailable      = NewDomainError(ErrorTypeResolver, "module table unavailable", nil)
	ErrPermissionsUnavailable  = NewDomainError(ErrorTypeResolver, "permission set unavailable", nil)
	ErrCompaniesUnavailable    = NewDomainError(ErrorTypeResolver, "company directory unavailable", nil)

	// Lookup errors
	ErrCompanyNotFound = NewDomainError(ErrorTypeNotFound, "company not found", nil)
	ErrActorNotFound   = NewDomainError(ErrorTypeNotFound, "actor not found", nil)

	// Stale-state errors
	ErrStaleSnapshot = NewDomainError(ErrorTypeStale, "snapshot superseded by tenant switch", nil)
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsUnauthenticatedError checks if an error is an unauthenticated error
func IsUnauthenticatedError(err error) bool {
	return hasType(err, ErrorTypeUnauthenticated)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return hasType(err, ErrorTypeUnauthorized)
}

// IsResolverError checks if an error is a resolver failure
func IsResolverError(err error) bool {
	return hasType(err, ErrorTypeResolver)
}

// IsStaleError checks if an error marks a superseded snapshot
func IsStaleError(err error) bool {
	return hasType(err, ErrorTypeStale)
}

// GetErrorType returns the ErrorType of a domain error, or empty string if
// not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// WrapResolver wraps an error as a resolver failure
func WrapResolver(message string, err error) error {
	return NewDomainError(ErrorTypeResolver, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}
