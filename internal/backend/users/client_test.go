package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

func TestClient_GetProfile_ForwardedWithoutPrefix(t *testing.T) {
	var gotPath, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.URL.Query().Get("user_id")
		w.Write([]byte(`{
			"_id": "u1",
			"full_name": "Ada Lovelace",
			"username": "ada",
			"location_city": "London",
			"favorites": [{"_id": "m1"}, "bad", {"_id": "m2"}],
			"reviews": [{"review_text": "Great", "date_posted": "2024-01-02"}]
		}`))
	}))
	defer server.Close()

	b, err := backend.NewClient(backend.Config{ForwardOrigin: server.URL}, endpoint.New(endpoint.DefaultOptions()), zerolog.Nop())
	require.NoError(t, err)
	c := NewClient(b, zerolog.Nop())

	profile, err := c.GetProfile(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "/myprofile", gotPath)
	assert.Equal(t, DefaultUserID, gotUser)
	assert.Equal(t, "Ada Lovelace", profile.FullName.String())
	assert.Equal(t, "London", profile.Location())
	assert.Len(t, profile.Favorites, 2)
	require.Len(t, profile.Reviews, 1)
	assert.Equal(t, "Great", profile.Reviews[0].Text.String())
}

func TestClient_GetProfile_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	b, err := backend.NewClient(backend.Config{}, endpoint.New(endpoint.Options{
		Users: endpoint.Target{Base: server.URL},
	}), zerolog.Nop())
	require.NoError(t, err)
	c := NewClient(b, zerolog.Nop())

	_, err = c.GetProfile(context.Background(), "u42")
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}
