// Package types holds the JSON envelopes shared by the server, the auth
// middleware and the request middlewares.
package types

import "time"

// ErrorCodeUndefined is reported for errors that carry no application code.
const ErrorCodeUndefined = -99

// ErrorDetail represents the error payload details
type ErrorDetail struct {
	Timestamp    string `json:"timestamp"`
	Path         string `json:"path"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    int    `json:"error_code"`
	TraceID      string `json:"trace_id,omitempty"`
}

// ErrorResponse represents the standardized error response structure
type ErrorResponse struct {
	StatusCode int         `json:"status_code"`
	IsSuccess  bool        `json:"is_success"`
	Error      ErrorDetail `json:"error,omitempty"`
}

// SuccessResponse represents the standardized success response structure
type SuccessResponse[T any] struct {
	StatusCode int  `json:"status_code"`
	IsSuccess  bool `json:"is_success"`
	Data       T    `json:"data,omitempty"`
}

// NewErrorResponse builds an error envelope stamped with the current time.
func NewErrorResponse(status int, path string, code int, message string) ErrorResponse {
	return ErrorResponse{
		StatusCode: status,
		IsSuccess:  false,
		Error: ErrorDetail{
			Timestamp:    time.Now().Format(time.RFC3339),
			Path:         path,
			ErrorMessage: message,
			ErrorCode:    code,
		},
	}
}

// WithTraceID returns a copy of the response tagged with a trace id.
func (r ErrorResponse) WithTraceID(traceID string) ErrorResponse {
	r.Error.TraceID = traceID
	return r
}
