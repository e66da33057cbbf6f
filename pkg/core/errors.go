// Package core provides shared utilities for the brunnels analysis pipeline.
package core

import (
	"fmt"
	"net/http"
)

// ErrorCode defines standard error codes reported by the pipeline
type ErrorCode string

// Standard error codes
const (
	// Input validation errors
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrInvalidTrack      ErrorCode = "INVALID_TRACK"
	ErrUnsupportedRegion ErrorCode = "UNSUPPORTED_REGION"
	ErrInvalidParameter  ErrorCode = "INVALID_PARAMETER"

	// Service errors
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrNetworkError       ErrorCode = "NETWORK_ERROR"

	// Data errors
	ErrNoResults     ErrorCode = "NO_RESULTS"
	ErrParseError    ErrorCode = "PARSE_ERROR"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents a detailed error structure for pipeline failures
type AppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Guidance string `json:"guidance,omitempty"`
}

// Error implements the error interface
func (e AppError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new AppError with the given code and message
func NewError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    string(code),
		Message: message,
	}
}

// Errorf creates a new AppError with a formatted message
func Errorf(code ErrorCode, format string, args ...any) *AppError {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WithGuidance adds guidance information to the error
func (e *AppError) WithGuidance(guidance string) *AppError {
	e.Guidance = guidance
	return e
}

// ServiceError creates an error for external service failures
func ServiceError(service string, statusCode int, message string) *AppError {
	var code ErrorCode
	var guidance string

	switch statusCode {
	case http.StatusTooManyRequests:
		code = ErrRateLimit
		guidance = "The service is rate-limited. Please try again in a few moments."
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = ErrServiceTimeout
		guidance = "The request timed out. Try reducing the search area or simplifying the query."
	case http.StatusBadRequest:
		code = ErrInvalidInput
		guidance = "The request was invalid. Check your parameters and try again."
	case http.StatusInternalServerError:
		code = ErrInternalError
		guidance = "The server encountered an error. This is likely temporary, please try again later."
	case http.StatusServiceUnavailable:
		code = ErrServiceUnavailable
		guidance = "The service is temporarily unavailable. Please try again later."
	default:
		code = ErrServiceUnavailable
		guidance = "Please try again later or modify your request parameters."
	}

	return NewError(code, fmt.Sprintf("%s service error: %s", service, message)).
		WithGuidance(guidance)
}
