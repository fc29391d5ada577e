package realtime

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation requires an open
	// connection. Outbound events are never queued.
	ErrNotConnected = errors.New("realtime: not connected")

	// ErrAlreadyConnected is returned by Connect on an open transport.
	ErrAlreadyConnected = errors.New("realtime: already connected")

	// ErrAPIKeyInBrowser is returned when an API key is configured in a
	// browser-like environment without the explicit override.
	ErrAPIKeyInBrowser = errors.New(
		"realtime: refusing to use an API key in a browser-like environment; " +
			"set DangerouslyAllowAPIKeyInBrowser to override")
)

// Error is a structured error from the server or the transport.
type Error struct {
	// Type is the error type (e.g. "invalid_request_error").
	Type string `json:"type,omitempty"`

	// Code is the error code (e.g. "invalid_value").
	Code string `json:"code,omitempty"`

	// Message is the human-readable error message.
	Message string `json:"message,omitempty"`

	// Param is the offending parameter, if applicable.
	Param string `json:"param,omitempty"`

	// EventID is the ID of the client event that caused the error.
	EventID string `json:"event_id,omitempty"`

	// HTTPStatus is the handshake status code, if the error occurred before
	// the WebSocket was established.
	HTTPStatus int `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Code, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("realtime: %s", e.Message)
}

// EventError is the error payload carried by server error events.
type EventError struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Param   string `json:"param,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// ToError converts an EventError to an Error.
func (e *EventError) ToError() *Error {
	return &Error{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Param:   e.Param,
		EventID: e.EventID,
	}
}
