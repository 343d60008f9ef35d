package gateway

import (
	"errors"
	"fmt"
)

// NetworkError is a transport-level failure: no usable response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a failure reported by the remote service itself.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: api error (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: api error: %s", e.Op, e.Message)
}

// IsNetwork reports whether err is, or wraps, a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAPI reports whether err is, or wraps, an APIError.
func IsAPI(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// UserMessage returns the text shown to the user for a gateway failure.
func UserMessage(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return fmt.Sprintf("network error during %s", ne.Op)
	}
	return err.Error()
}
