package server

import (
	"net/http"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/middleware"
	"github.com/Digital-Creators-Team/bingo-game-module/types"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is an alias for types.ErrorResponse
type ErrorResponse = types.ErrorResponse

// SuccessResponse is a type alias for types.SuccessResponse[T]
type SuccessResponse[T any] = types.SuccessResponse[T]

// BaseResponse is the untyped success envelope
type BaseResponse = SuccessResponse[interface{}]

// Success sends a success response
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, BaseResponse{
		StatusCode: statusCode,
		IsSuccess:  true,
		Data:       data,
	})
}

// OK sends a 200 OK response
func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, data)
}

// Created sends a 201 Created response
func Created(c *gin.Context, data interface{}) {
	Success(c, http.StatusCreated, data)
}

// Error sends an error response. Application errors keep their code;
// anything else is reported as undefined.
func Error(c *gin.Context, statusCode int, err error) {
	code := types.ErrorCodeUndefined
	msg := err.Error()
	if appErr, ok := errors.AsAppError(err); ok {
		code = appErr.Code
		msg = appErr.Message
	}
	resp := types.NewErrorResponse(statusCode, c.Request.URL.Path, code, msg).
		WithTraceID(middleware.GetTraceID(c))
	c.AbortWithStatusJSON(statusCode, resp)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, err)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context, err error) {
	Error(c, http.StatusUnauthorized, err)
}

// NotFound sends a 404 Not Found response
func NotFound(c *gin.Context, err error) {
	Error(c, http.StatusNotFound, err)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, err)
}

// HandleAppError maps an error to its HTTP status and sends it
func HandleAppError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		Error(c, errors.HTTPStatusFromCode(appErr.Code), appErr)
		return
	}
	InternalError(c, err)
}
