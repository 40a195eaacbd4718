package transport

import (
	"appero/internal/models"
	"errors"
	"fmt"
)

var (
	ErrNoResponse = errors.New("no response from server")
	ErrTimeout    = errors.New("request timed out")
	// ErrNoData is returned for a 2xx answer without a body. The request was
	// still accepted by the server.
	ErrNoData = errors.New("response contained no data")
)

// NetworkError is a non-2xx status from the backend.
type NetworkError struct {
	StatusCode int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: status %d", e.StatusCode)
}

// ServerMessageError is a 401 or 422 that came with a structured error body.
type ServerMessageError struct {
	StatusCode int
	Body       models.APIErrorResponse
}

func (e *ServerMessageError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("server error %d: %s: %s", e.StatusCode, e.Body.Error, e.Body.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Body.Error)
}

// StatusCode extracts the HTTP status from a transport error, or 0.
func StatusCode(err error) int {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode
	}
	var srvErr *ServerMessageError
	if errors.As(err, &srvErr) {
		return srvErr.StatusCode
	}
	return 0
}

// Delivered reports whether the server accepted the request despite err.
func Delivered(err error) bool {
	return err == nil || errors.Is(err, ErrNoData)
}
