package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
)

// Standard error codes
const (
	ErrInvalidRequest      = 400
	ErrUnauthorized        = 401
	ErrForbidden           = 403
	ErrNotFound            = 404
	ErrConflict            = 409
	ErrInternalServerError = 500
	ErrServiceUnavailable  = 503

	// Game-specific error codes (1000+)
	ErrInsufficientCredits  = 1001
	ErrRoundInProgress      = 1002
	ErrRoundNotActive       = 1003
	ErrSpaceNotCalled       = 1004
	ErrSpaceNotOnCard       = 1005
	ErrCardNotFound         = 1006
	ErrInvalidBetMultiplier = 1007
	ErrNoBonusOffer         = 1008
	ErrUnknownProduct       = 1009
	ErrPurchaseError        = 1010
	ErrAdError              = 1011
	ErrLeaderboardError     = 1012
	ErrStoreError           = 1013
	ErrRedisError           = 1014
	ErrKafkaError           = 1015
	ErrConfigError          = 1016
	ErrGameLogicError       = 1017
	ErrCorruptData          = 1018
	ErrVariantNotFound      = 1019
)

// AppError represents a custom application error
type AppError struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	DebugMessage string `json:"debug_message,omitempty"`
	Err          error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.DebugMessage != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.DebugMessage)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s [%v]", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewWithDebug creates a new AppError with a debug message
func NewWithDebug(code int, message string, debugMessage string) *AppError {
	return &AppError{
		Code:         code,
		Message:      message,
		DebugMessage: debugMessage,
	}
}

// Wrap wraps an existing error into an AppError
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapWithDebug wraps an existing error into an AppError with a debug message
func WrapWithDebug(err error, code int, message string, debugMessage string) *AppError {
	return &AppError{
		Code:         code,
		Message:      message,
		DebugMessage: debugMessage,
		Err:          err,
	}
}

// Response returns a map suitable for JSON response
func (e *AppError) Response() map[string]interface{} {
	response := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}

	// Debug messages only leave the process in development
	env := os.Getenv("APP_ENV")
	if (env == "dev" || env == "development") && e.DebugMessage != "" {
		response["debug_message"] = e.DebugMessage
	}

	return response
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError returns the outermost AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode extracts the error code from an error chain
func GetCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternalServerError
}

// Is reports whether err carries the given code anywhere in its chain
func Is(err error, code int) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// HTTPStatusFromCode maps error codes to HTTP status codes
func HTTPStatusFromCode(code int) int {
	switch code {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrInsufficientCredits, ErrSpaceNotCalled, ErrSpaceNotOnCard,
		ErrInvalidBetMultiplier, ErrUnknownProduct:
		return http.StatusUnprocessableEntity
	case ErrRoundInProgress, ErrRoundNotActive, ErrNoBonusOffer:
		return http.StatusConflict
	case ErrCardNotFound, ErrVariantNotFound:
		return http.StatusNotFound
	case ErrPurchaseError, ErrAdError, ErrLeaderboardError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
