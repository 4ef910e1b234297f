package people

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	b, err := backend.NewClient(backend.Config{}, endpoint.New(endpoint.Options{
		People: endpoint.Target{Base: server.URL},
	}), zerolog.Nop())
	require.NoError(t, err)
	return NewClient(b, zerolog.Nop())
}

func TestClient_SearchByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		switch r.URL.Query().Get("q") {
		case "Keanu Reeves":
			w.Write([]byte(`[{"_id":"nm0000206","name":"Keanu Reeves","role":["Actor","Producer"]}]`))
		default:
			w.Write([]byte(`[]`))
		}
	})

	person, err := c.SearchByName(context.Background(), "Keanu Reeves")
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, "nm0000206", person.Identifier())
	assert.Equal(t, "Actor / Producer", person.Role.Label())

	person, err = c.SearchByName(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Nil(t, person)
}

func TestClient_SearchByName_FirstOfSeveral(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"p1","name":"Chris Evans"},{"_id":"p2","name":"Chris Evans"}]`))
	})

	person, err := c.SearchByName(context.Background(), "Chris Evans")
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, "p1", person.ID.String())
}

func TestClient_GetPerson(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people/nm1":
			w.Write([]byte(`{"_id":"nm1","name":"Carrie-Anne Moss","movie":[{"_id":"m1","title":"The Matrix"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	person, err := c.GetPerson(context.Background(), "nm1")
	require.NoError(t, err)
	assert.Len(t, person.KnownFor, 1)

	_, err = c.GetPerson(context.Background(), "nm404")
	assert.True(t, errors.Is(err, backend.ErrNotFound))

	_, err = c.GetPerson(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingID)
}
