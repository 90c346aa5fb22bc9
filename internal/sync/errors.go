package sync

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any HTTP 401 failure via errors.Is. The refresh
// fallback logic branches on it instead of inspecting raw status codes.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPError is a non-2xx response from the sync server, carrying the
// structured error body when the server supplied one.
type HTTPError struct {
	StatusCode int
	Message    string // server-supplied errorMessage, may be empty
	MessageID  string // server-supplied errorMessageId, may be empty
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
