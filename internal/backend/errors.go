package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means the backend rejected the session credential.
	ErrUnauthorized = errors.New("backend rejected session")
	// ErrUnavailable means the backend could not be reached or is temporarily down.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrFileChanged means the file's length changed while it was being sent.
	ErrFileChanged = errors.New("file changed during upload")
)

// StatusError reports a response other than the expected status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return nil
	}
}
