package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrTransport          = errors.New("transport failure")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// BackendStatusError is a completed exchange with a non-2xx status.
// Body holds the response body read as text.
type BackendStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *BackendStatusError) Error() string {
	if e == nil {
		return "backend status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("backend %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("backend %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// AsStatusError reports whether err carries a non-2xx backend response.
func AsStatusError(err error) (*BackendStatusError, bool) {
	var statusErr *BackendStatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
