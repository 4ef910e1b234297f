// Package testutil provides a fake forwarding layer for integration tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Upstream serves the movies, people and users services behind one origin,
// mounted the way the forwarding layer mounts them.
type Upstream struct {
	Server *httptest.Server

	mu       sync.Mutex
	titles   []map[string]any
	people   []map[string]any
	profiles map[string]map[string]any
	failing  map[string]int

	// Requests counts every request received.
	Requests atomic.Int64
}

// NewUpstream starts an empty fake upstream closed at test cleanup.
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()
	u := &Upstream{
		titles:   []map[string]any{},
		people:   []map[string]any{},
		profiles: make(map[string]map[string]any),
		failing:  make(map[string]int),
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

// URL returns the origin of the fake forwarding layer.
func (u *Upstream) URL() string {
	return u.Server.URL
}

// AddTitle registers a title record.
func (u *Upstream) AddTitle(title map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.titles = append(u.titles, title)
}

// AddPerson registers a person record.
func (u *Upstream) AddPerson(person map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.people = append(u.people, person)
}

// SetProfile registers the profile of userID.
func (u *Upstream) SetProfile(userID string, profile map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.profiles[userID] = profile
}

// Fail makes every request whose path starts with prefix answer status.
func (u *Upstream) Fail(prefix string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing[prefix] = status
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.Requests.Add(1)

	u.mu.Lock()
	defer u.mu.Unlock()

	for prefix, status := range u.failing {
		if strings.HasPrefix(r.URL.Path, prefix) {
			w.WriteHeader(status)
			return
		}
	}

	path := r.URL.Path
	switch {
	case path == "/api/movies-series":
		writeJSON(w, u.titles)
	case path == "/api/movies" || path == "/api/series":
		wantSeries := path == "/api/series"
		out := []map[string]any{}
		for _, t := range u.titles {
			typ, _ := t["imdb_type"].(string)
			isSeries := strings.HasPrefix(strings.ToLower(typ), "tv") || strings.EqualFold(typ, "series")
			if isSeries == wantSeries {
				out = append(out, t)
			}
		}
		writeJSON(w, out)
	case strings.HasPrefix(path, "/api/movies-series/"):
		id := strings.TrimPrefix(path, "/api/movies-series/")
		for _, t := range u.titles {
			if t["_id"] == id {
				writeJSON(w, t)
				return
			}
		}
		http.NotFound(w, r)
	case path == "/api/people":
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		out := []map[string]any{}
		for _, p := range u.people {
			name, _ := p["name"].(string)
			if q == "" || strings.EqualFold(name, q) {
				out = append(out, p)
				break
			}
		}
		writeJSON(w, out)
	case strings.HasPrefix(path, "/api/people/"):
		id := strings.TrimPrefix(path, "/api/people/")
		for _, p := range u.people {
			if p["_id"] == id || p["imdb_name_id"] == id {
				writeJSON(w, p)
				return
			}
		}
		http.NotFound(w, r)
	case path == "/myprofile":
		profile, ok := u.profiles[r.URL.Query().Get("user_id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, profile)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
