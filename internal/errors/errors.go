// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies application errors at the request boundary.
type ErrorType string

const (
	ErrorTypeInvalidInput      ErrorType = "invalid_input"
	ErrorTypeExtraction        ErrorType = "extraction_error"
	ErrorTypeNavigationTimeout ErrorType = "navigation_timeout"
	ErrorTypeGeneration        ErrorType = "generation_error"
	ErrorTypeRateLimited       ErrorType = "rate_limited"
	ErrorTypeInternal          ErrorType = "internal_error"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code the API layer answers with.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewInvalidInputError reports a missing or malformed request field.
func NewInvalidInputError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeInvalidInput, message, originalError)
}

// NewExtractionError reports a browser navigation or evaluation failure.
func NewExtractionError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeExtraction, message, originalError)
}

// NewNavigationTimeoutError reports a page that did not settle within the navigation budget.
func NewNavigationTimeoutError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNavigationTimeout, message, originalError)
}

// NewGenerationError reports a text-generation failure after retries.
func NewGenerationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeGeneration, message, originalError)
}

func NewRateLimitedError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeRateLimited, message, originalError)
}

func NewInternalError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeInternal, message, originalError)
}

func hasType(err error, errType ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == errType
	}
	return false
}

// IsInvalidInputError 检查是否为输入错误
func IsInvalidInputError(err error) bool {
	return hasType(err, ErrorTypeInvalidInput)
}

// IsExtractionError reports extraction failures, navigation timeouts included.
func IsExtractionError(err error) bool {
	return hasType(err, ErrorTypeExtraction) || hasType(err, ErrorTypeNavigationTimeout)
}

func IsNavigationTimeoutError(err error) bool {
	return hasType(err, ErrorTypeNavigationTimeout)
}

// IsGenerationError 检查是否为生成错误
func IsGenerationError(err error) bool {
	return hasType(err, ErrorTypeGeneration)
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeExtraction:
		return "EXTRACTION_FAILED"
	case ErrorTypeNavigationTimeout:
		return "NAVIGATION_TIMEOUT"
	case ErrorTypeGeneration:
		return "GENERATION_FAILED"
	case ErrorTypeRateLimited:
		return "RATE_LIMIT_EXCEEDED"
	case ErrorTypeInternal:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// AsAppError returns err as an *AppError, wrapping anything foreign as an internal error.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return NewInternalError("internal error", err)
}
