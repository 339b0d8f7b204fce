package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindTransport means the request never produced a response (dial, timeout, cancel).
	KindTransport Kind = iota + 1
	// KindStatus means a non-2xx response whose body carried a JSON error.
	KindStatus
	// KindUnparseable means a non-2xx response whose body was not JSON.
	KindUnparseable
	// KindDecode means a 2xx response whose body did not match the expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindUnparseable:
		return "unparseable"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error is returned by every Client method that fails.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Message    string // "message" field of the JSON error body, if any
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the backend's message for err, or fallback when there is none.
func Message(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }
