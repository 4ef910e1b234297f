package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cinedeck/cinedeck/internal/endpoint"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrPayload  = errors.New("unexpected response payload")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Service    endpoint.Service
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s service: %s returned status %d", e.Service, e.URL, e.StatusCode)
}

// Is makes a 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// RequestError is returned when the request could not complete.
type RequestError struct {
	Service endpoint.Service
	URL     string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s service: request to %s failed: %v", e.Service, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err stems from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
