package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

// ErrorKind classifies a failed primary fetch.
type ErrorKind string

const (
	KindNotFound  ErrorKind = "not_found"
	KindUpstream  ErrorKind = "upstream"
	KindTransport ErrorKind = "transport"
)

// PageError is the user-facing failure of a page.
type PageError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Hint    string    `json:"hint,omitempty"`
}

func (e *PageError) Error() string {
	return e.Text()
}

// Text joins the message and the hint.
func (e *PageError) Text() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + " " + e.Hint
}

// Messages holds the page-specific texts used when classifying failures.
// An empty NotFound makes a 404 count as an upstream failure.
type Messages struct {
	NotFound string
	Failure  string
}

// Classifier maps backend errors to page errors with a reachability hint.
type Classifier struct {
	resolver      *endpoint.Resolver
	forwardOrigin string
}

// NewClassifier creates a classifier for the given endpoints.
func NewClassifier(resolver *endpoint.Resolver, forwardOrigin string) Classifier {
	return Classifier{
		resolver:      resolver,
		forwardOrigin: strings.TrimRight(forwardOrigin, "/"),
	}
}

// Classify converts err from svc into a page error. A *PageError passes
// through unchanged.
func (c Classifier) Classify(svc endpoint.Service, msgs Messages, err error) *PageError {
	var pageErr *PageError
	if errors.As(err, &pageErr) {
		return pageErr
	}

	if errors.Is(err, backend.ErrNotFound) && msgs.NotFound != "" {
		return &PageError{Kind: KindNotFound, Message: msgs.NotFound}
	}

	kind := KindTransport
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, backend.ErrPayload) {
		kind = KindUpstream
	}

	return &PageError{
		Kind:    kind,
		Message: msgs.Failure,
		Hint:    c.hint(svc, err),
	}
}

func (c Classifier) hint(svc endpoint.Service, err error) string {
	if c.resolver != nil && c.resolver.Direct(svc) {
		target := c.resolver.Base(svc)
		var statusErr *backend.StatusError
		var reqErr *backend.RequestError
		switch {
		case errors.As(err, &statusErr):
			target = statusErr.URL
		case errors.As(err, &reqErr):
			target = reqErr.URL
		}
		return fmt.Sprintf("Please verify the service at %s is reachable.", target)
	}

	if c.forwardOrigin != "" {
		return fmt.Sprintf("Please verify the %s service is reachable through the forwarding layer at %s.", svc, c.forwardOrigin)
	}
	return fmt.Sprintf("Please verify the %s service is reachable through the forwarding layer.", svc)
}
