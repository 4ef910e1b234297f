package movies

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

func setupTestServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movies-series":
			w.Write([]byte(`[{"_id":"m1","title":"The Matrix","imdb_type":"Movie"},{"_id":"s1","title":"Dark","imdb_type":"TVSeries"}]`))
		case "/movies":
			w.Write([]byte(`[{"_id":"m1","title":"The Matrix","imdb_type":"Movie"}]`))
		case "/series":
			w.Write([]byte(`[{"_id":"s1","title":"Dark","imdb_type":"TVSeries"}]`))
		case "/movies-series/m1":
			w.Write([]byte(`{"_id":"m1","title":"The Matrix","main_actors":["Keanu Reeves"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	b, err := backend.NewClient(backend.Config{}, endpoint.New(endpoint.Options{
		Movies: endpoint.Target{Base: serverURL},
	}), zerolog.Nop())
	if err != nil {
		t.Fatalf("backend.NewClient() error = %v", err)
	}
	return NewClient(b, zerolog.Nop())
}

func TestClient_ListTitles(t *testing.T) {
	server := setupTestServer(t)
	defer server.Close()

	c := newTestClient(t, server.URL)

	tests := []struct {
		kind catalog.Kind
		want int
	}{
		{catalog.KindAll, 2},
		{catalog.KindMovie, 1},
		{catalog.KindSeries, 1},
	}

	for _, tt := range tests {
		titles, err := c.ListTitles(context.Background(), tt.kind)
		if err != nil {
			t.Fatalf("ListTitles(%q) error = %v", tt.kind, err)
		}
		if len(titles) != tt.want {
			t.Errorf("ListTitles(%q) returned %d titles, want %d", tt.kind, len(titles), tt.want)
		}
	}
}

func TestClient_GetTitle(t *testing.T) {
	server := setupTestServer(t)
	defer server.Close()

	c := newTestClient(t, server.URL)

	title, err := c.GetTitle(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetTitle() error = %v", err)
	}
	if title.Name.String() != "The Matrix" {
		t.Errorf("Name = %q, want %q", title.Name, "The Matrix")
	}
	if len(title.MainActors) != 1 {
		t.Errorf("MainActors = %v, want 1 entry", title.MainActors)
	}
}

func TestClient_GetTitle_NotFound(t *testing.T) {
	server := setupTestServer(t)
	defer server.Close()

	c := newTestClient(t, server.URL)

	_, err := c.GetTitle(context.Background(), "missing")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("GetTitle() error = %v, want not found", err)
	}

	if _, err := c.GetTitle(context.Background(), " "); !errors.Is(err, ErrMissingID) {
		t.Errorf("GetTitle(\"\") error = %v, want %v", err, ErrMissingID)
	}
}
