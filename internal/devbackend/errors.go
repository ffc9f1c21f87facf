package devbackend

import "net/http"

// APIError is rendered as {"success": false, "message": ...}.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func newError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func errInternal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return newError(http.StatusInternalServerError, message)
}

func errBadRequest(message string) *APIError {
	return newError(http.StatusBadRequest, message)
}

func errUnauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(http.StatusUnauthorized, message)
}

func errForbidden(message string) *APIError {
	if message == "" {
		message = "forbidden"
	}
	return newError(http.StatusForbidden, message)
}

func errConflict(message string) *APIError {
	return newError(http.StatusConflict, message)
}

func errNotFound(message string) *APIError {
	return newError(http.StatusNotFound, message)
}
