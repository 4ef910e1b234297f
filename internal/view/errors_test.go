package view

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

func TestClassifier_Classify(t *testing.T) {
	resolver := endpoint.New(endpoint.Options{
		People: endpoint.Target{Base: "http://people.internal:5002"},
		Movies: endpoint.Target{Prefix: "/api"},
	})
	c := NewClassifier(resolver, "http://localhost:3000/")
	msgs := Messages{NotFound: "gone", Failure: "broken."}

	tests := []struct {
		name     string
		svc      endpoint.Service
		err      error
		wantKind ErrorKind
		wantMsg  string
		wantHint string
	}{
		{
			name:     "404 is not found without hint",
			svc:      endpoint.People,
			err:      fmt.Errorf("get person: %w", &backend.StatusError{URL: "http://people.internal:5002/people/x", StatusCode: 404}),
			wantKind: KindNotFound,
			wantMsg:  "gone",
		},
		{
			name:     "500 in direct mode names the URL",
			svc:      endpoint.People,
			err:      &backend.StatusError{URL: "http://people.internal:5002/people/x", StatusCode: 500},
			wantKind: KindUpstream,
			wantMsg:  "broken.",
			wantHint: "Please verify the service at http://people.internal:5002/people/x is reachable.",
		},
		{
			name:     "transport error in forwarding mode names the forwarding layer",
			svc:      endpoint.Movies,
			err:      &backend.RequestError{URL: "http://localhost:3000/api/movies-series", Err: errors.New("dial tcp: refused")},
			wantKind: KindTransport,
			wantMsg:  "broken.",
			wantHint: "Please verify the movies service is reachable through the forwarding layer at http://localhost:3000.",
		},
		{
			name:     "bad payload is upstream",
			svc:      endpoint.Movies,
			err:      fmt.Errorf("%w: html", backend.ErrPayload),
			wantKind: KindUpstream,
			wantMsg:  "broken.",
			wantHint: "Please verify the movies service is reachable through the forwarding layer at http://localhost:3000.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.svc, msgs, tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
			if got.Hint != tt.wantHint {
				t.Errorf("Hint = %q, want %q", got.Hint, tt.wantHint)
			}
		})
	}
}

func TestClassifier_NotFoundWithoutMessageIsUpstream(t *testing.T) {
	c := NewClassifier(endpoint.New(endpoint.DefaultOptions()), "")
	got := c.Classify(endpoint.Movies, Messages{Failure: "Unable to load movie data."}, &backend.StatusError{StatusCode: 404})

	if got.Kind != KindUpstream {
		t.Errorf("Kind = %q, want %q", got.Kind, KindUpstream)
	}
	if got.Text() != "Unable to load movie data. Please verify the movies service is reachable through the forwarding layer." {
		t.Errorf("Text() = %q", got.Text())
	}
}

func TestClassifier_PassesPageErrorThrough(t *testing.T) {
	c := NewClassifier(nil, "")
	in := &PageError{Kind: KindNotFound, Message: MsgActorMissingID}

	if got := c.Classify(endpoint.People, Messages{}, in); got != in {
		t.Errorf("Classify() = %v, want passthrough", got)
	}
}
