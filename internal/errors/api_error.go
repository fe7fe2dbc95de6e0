package errors

import "net/http"

type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

// Persistence reports a storage read or write failure.
func Persistence(message string) *APIError {
	if message == "" {
		message = "storage failure"
	}
	return New(http.StatusInternalServerError, "persistence_error", message)
}

// Validation reports bad input shape or range.
func Validation(message string) *APIError {
	if message == "" {
		message = "Invalid values"
	}
	return New(http.StatusBadRequest, "validation_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}
