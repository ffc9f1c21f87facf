package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies client failures.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindSessionExpired
	KindServer
	KindUnexpectedFormat
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindSessionExpired:
		return "session_expired"
	case KindServer:
		return "server_error"
	case KindUnexpectedFormat:
		return "unexpected_format"
	case KindNetwork:
		return "network_error"
	default:
		return "unknown"
	}
}

// Error is returned by every failing client call. Status is 0 for network errors.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, apiclient.ErrSessionExpired).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "No authentication token found"}
	ErrSessionExpired   = &Error{Kind: KindSessionExpired, Status: http.StatusUnauthorized, Message: "Session expired. Please log in again."}
	ErrServer           = &Error{Kind: KindServer, Message: "request failed"}
	ErrUnexpectedFormat = &Error{Kind: KindUnexpectedFormat, Message: "Unexpected response format"}
	ErrNetwork          = &Error{Kind: KindNetwork, Message: "network error"}
)

// ErrSessionStore marks failures of the session store behind the client.
var ErrSessionStore = errors.New("session store unavailable")

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrSessionStore, err)
}

func unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: ErrUnauthorized.Message}
}

func sessionExpired() *Error {
	return &Error{Kind: KindSessionExpired, Status: http.StatusUnauthorized, Message: ErrSessionExpired.Message}
}

func serverError(status int, message string) *Error {
	return &Error{Kind: KindServer, Status: status, Message: message}
}

func unexpectedFormat(status int, err error) *Error {
	return &Error{Kind: KindUnexpectedFormat, Status: status, Message: ErrUnexpectedFormat.Message, Err: err}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
}

// IsAuthFailure reports whether err means the user has to log in again.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
