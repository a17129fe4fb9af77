package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeAppError   = "APP_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeProcessing = "PROCESSING_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeConfig     = "CONFIG_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// APIError reports that a remote call (LLM API, metadata API) could not complete.
type APIError struct {
	*AppError
	Provider string
}

func NewAPIError(message, provider string, statusCode int, cause error) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context: map[string]any{
				"provider": provider,
			},
			Cause: cause,
		},
		Provider: provider,
	}
}

// ProcessingError reports that the input could not be turned into usable
// media or content: yt-dlp failures, empty audio, unusable model output.
type ProcessingError struct {
	*AppError
	Stage string
}

func NewProcessingError(message, stage string, cause error) *ProcessingError {
	return &ProcessingError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeProcessing,
			StatusCode: 422,
			Context: map[string]any{
				"stage": stage,
			},
			Cause: cause,
		},
		Stage: stage,
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type ConfigError struct {
	*AppError
	Key string
}

func NewConfigError(message, key string) *ConfigError {
	return &ConfigError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeConfig,
			StatusCode: 503,
			Context: map[string]any{
				"key": key,
			},
		},
		Key: key,
	}
}

// IsAPIError reports whether err or any error it wraps is an *APIError.
func IsAPIError(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsProcessingError reports whether err or any error it wraps is a *ProcessingError.
func IsProcessingError(err error) bool {
	var target *ProcessingError
	return errors.As(err, &target)
}
