package utils

import (
	"fmt"
	"net/http"
)

// AppError is the error type carried across service boundaries. Controllers
// map Status to the HTTP response; Code is a stable machine-readable
// identifier for clients.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotFound(code, message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: code, Message: message}
}

func Forbidden(code, message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: code, Message: message}
}

func Conflict(code, message string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: code, Message: message}
}

func Upstream(code, message string) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: code, Message: message}
}
