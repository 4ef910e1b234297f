package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/endpoint"
	"github.com/cinedeck/cinedeck/internal/enrich"
)

type fakeTitles struct {
	mu      sync.Mutex
	titles  map[string]catalog.Title
	list    []catalog.Title
	listErr error
	gate    map[string]chan struct{}
}

func (f *fakeTitles) GetTitle(ctx context.Context, id string) (*catalog.Title, error) {
	f.mu.Lock()
	gate := f.gate[id]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	title, ok := f.titles[id]
	if !ok {
		return nil, &backend.StatusError{Service: endpoint.Movies, URL: "/api/movies-series/" + id, StatusCode: 404}
	}
	return &title, nil
}

func (f *fakeTitles) ListTitles(ctx context.Context, kind catalog.Kind) ([]catalog.Title, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

type fakeSearch struct {
	people  map[string]catalog.Person
	fail    map[string]bool
	gate    map[string]chan struct{}
	entered chan string
}

func (f *fakeSearch) SearchByName(ctx context.Context, name string) (*catalog.Person, error) {
	if gate := f.gate[name]; gate != nil {
		if f.entered != nil {
			f.entered <- name
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[name] {
		return nil, errors.New("people service unavailable")
	}
	p, ok := f.people[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type fakePersons map[string]catalog.Person

func (f fakePersons) GetPerson(ctx context.Context, id string) (*catalog.Person, error) {
	p, ok := f[id]
	if !ok {
		return nil, &backend.StatusError{Service: endpoint.People, URL: "/api/people/" + id, StatusCode: 404}
	}
	return &p, nil
}

type fakeUsers struct {
	profile *catalog.Profile
	err     error
	gotID   string
}

func (f *fakeUsers) GetProfile(ctx context.Context, userID string) (*catalog.Profile, error) {
	f.gotID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func film(id, name string, rating float64, actors ...string) catalog.Title {
	return catalog.Title{
		ID:          catalog.Text(id),
		Name:        catalog.Text(name),
		PosterURL:   catalog.Text("https://img.example/" + id + ".jpg"),
		Description: catalog.Text("About " + name),
		Rating:      catalog.NumberOf(rating),
		MainActors:  catalog.NameList(actors),
	}
}

func newDeps(titles *fakeTitles, search *fakeSearch) Deps {
	if search == nil {
		search = &fakeSearch{}
	}
	return Deps{
		Titles:     titles,
		People:     fakePersons{},
		Users:      &fakeUsers{},
		Engine:     enrich.NewEngine(search, titles, enrich.Config{}, zerolog.Nop()),
		Classifier: NewClassifier(endpoint.New(endpoint.DefaultOptions()), "http://localhost:3000"),
		Logger:     zerolog.Nop(),
	}
}

func settle(t *testing.T, p Page) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
	return p.Snapshot()
}

func TestMoviePage_NotFound(t *testing.T) {
	titles := &fakeTitles{titles: map[string]catalog.Title{}}
	p, err := newDeps(titles, nil).NewPage(RouteMovie, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "m1")
	snap := settle(t, p)

	assert.Equal(t, PhaseFailed, snap.Phase)
	require.NotNil(t, snap.Error)
	assert.Equal(t, KindNotFound, snap.Error.Kind)
	assert.Equal(t, MsgMovieNotFound, snap.Error.Message)
	assert.Nil(t, snap.Data)
	assert.Nil(t, snap.Enrichment)
}

func TestMoviePage_ReadyWithPartialCast(t *testing.T) {
	titles := &fakeTitles{
		titles: map[string]catalog.Title{"m1": film("m1", "The Matrix", 8.7, "A", "B")},
		list:   []catalog.Title{film("m1", "The Matrix", 8.7), film("m2", "Speed", 7.2)},
	}
	search := &fakeSearch{
		people: map[string]catalog.Person{"A": {ID: "p1", Name: "A"}},
		fail:   map[string]bool{"B": true},
	}
	p, err := newDeps(titles, search).NewPage(RouteMovie, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "m1")
	snap := settle(t, p)

	require.Equal(t, PhaseReady, snap.Phase)
	data, ok := snap.Data.(*MovieData)
	require.True(t, ok)
	assert.Equal(t, "The Matrix", data.Hero.Name.String())
	require.Len(t, data.Rail, 2)
	assert.True(t, data.Rail[0].Active)
	assert.False(t, data.Rail[1].Active)

	assert.False(t, snap.Enriching)
	cast, ok := snap.Enrichment.(enrich.TrackerState[enrich.CastResult])
	require.True(t, ok)
	require.Equal(t, enrich.StatusSettled, cast.Status)
	assert.Equal(t, enrich.CastNotice, cast.Result.Notice)
	assert.Equal(t, 1, cast.Result.Resolved)
	assert.Equal(t, 1, cast.Result.Failed)
}

func TestMoviePage_RailFailureKeepsPage(t *testing.T) {
	titles := &fakeTitles{
		titles:  map[string]catalog.Title{"m1": film("m1", "The Matrix", 8.7)},
		listErr: errors.New("list unavailable"),
	}
	p, err := newDeps(titles, nil).NewPage(RouteMovie, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "m1")
	snap := settle(t, p)

	require.Equal(t, PhaseReady, snap.Phase)
	data := snap.Data.(*MovieData)
	assert.Empty(t, data.Rail)
	assert.Equal(t, MsgRailFailure, data.RailNotice)
}

func TestMoviePage_HomeUsesCuratedSelection(t *testing.T) {
	incomplete := film("x", "No Poster", 10)
	incomplete.PosterURL = ""
	titles := &fakeTitles{list: []catalog.Title{
		film("m2", "Speed", 7.2),
		incomplete,
		film("m1", "The Matrix", 8.7),
	}}
	p, err := newDeps(titles, nil).NewPage(RouteMovie, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "")
	snap := settle(t, p)

	require.Equal(t, PhaseReady, snap.Phase)
	data := snap.Data.(*MovieData)
	require.NotNil(t, data.Hero)
	assert.Equal(t, "m1", data.Hero.ID.String())
	require.Len(t, data.Rail, 2)
	assert.Equal(t, "m2", data.Rail[1].ID)
}

func TestMoviePage_HomeFailureHasHint(t *testing.T) {
	titles := &fakeTitles{listErr: &backend.RequestError{Service: endpoint.Movies, URL: "http://localhost:3000/api/movies-series", Err: errors.New("connection refused")}}
	p, err := newDeps(titles, nil).NewPage(RouteMovie, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "")
	snap := settle(t, p)

	require.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, KindTransport, snap.Error.Kind)
	assert.Equal(t, MsgMovieFailure, snap.Error.Message)
	assert.Contains(t, snap.Error.Hint, "forwarding layer at http://localhost:3000")
}

func TestMoviePage_NavigationRaceShowsLatest(t *testing.T) {
	slow := make(chan struct{})
	titles := &fakeTitles{
		titles: map[string]catalog.Title{
			"x": film("x", "Title X", 5, "Actor X"),
			"y": film("y", "Title Y", 6, "Actor Y"),
		},
		gate: map[string]chan struct{}{"x": slow},
	}
	p, err := newDeps(titles, nil).NewPage(RouteMovie, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "x")
	p.Navigate(context.Background(), "y")
	snap := settle(t, p)
	close(slow)
	time.Sleep(20 * time.Millisecond)

	for _, s := range []Snapshot{snap, p.Snapshot()} {
		assert.Equal(t, "y", s.Param)
		require.Equal(t, PhaseReady, s.Phase)
		assert.Equal(t, "y", s.Data.(*MovieData).Hero.ID.String())
		cast := s.Enrichment.(enrich.TrackerState[enrich.CastResult])
		assert.Equal(t, "y", cast.Key)
		assert.Equal(t, "Actor Y", cast.Result.Sections[0].Credits[0].Name)
	}
}

func TestMoviePage_NavigationDuringCastLoadShowsLatest(t *testing.T) {
	release := make(chan struct{})
	search := &fakeSearch{
		people: map[string]catalog.Person{
			"Actor X": {ID: "px", Name: "Actor X", Role: catalog.RoleList("Actor")},
			"Actor Y": {ID: "py", Name: "Actor Y", Role: catalog.RoleList("Actor")},
		},
		gate:    map[string]chan struct{}{"Actor X": release},
		entered: make(chan string, 1),
	}
	titles := &fakeTitles{titles: map[string]catalog.Title{
		"x": film("x", "Title X", 5, "Actor X"),
		"y": film("y", "Title Y", 6, "Actor Y"),
	}}
	p, err := newDeps(titles, search).NewPage(RouteMovie, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "x")
	select {
	case name := <-search.entered:
		require.Equal(t, "Actor X", name)
	case <-time.After(2 * time.Second):
		t.Fatal("cast lookup for x never started")
	}

	p.Navigate(context.Background(), "y")
	snap := settle(t, p)
	close(release)
	time.Sleep(20 * time.Millisecond)

	for _, s := range []Snapshot{snap, p.Snapshot()} {
		assert.Equal(t, "y", s.Param)
		require.Equal(t, PhaseReady, s.Phase)
		assert.Equal(t, "y", s.Data.(*MovieData).Hero.ID.String())
		cast := s.Enrichment.(enrich.TrackerState[enrich.CastResult])
		require.Equal(t, enrich.StatusSettled, cast.Status)
		assert.Equal(t, "y", cast.Key)
		credit := cast.Result.Sections[0].Credits[0]
		assert.Equal(t, "Actor Y", credit.Name)
		require.NotNil(t, credit.Person)
		assert.Equal(t, "py", credit.Person.ID.String())
		assert.Empty(t, cast.Result.Notice)
	}
}

func TestController_UnmountRejectsLateResult(t *testing.T) {
	release := make(chan struct{})
	c := NewController(ControllerConfig[string]{
		Route: RouteMovie,
		Load: func(ctx context.Context, param string) (*string, error) {
			<-release
			v := "late " + param
			return &v, nil
		},
	}, zerolog.Nop())

	c.Navigate(context.Background(), "x")
	c.Unmount()
	close(release)
	time.Sleep(20 * time.Millisecond)

	state := c.Snapshot()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Nil(t, state.Data)
}

func TestController_ParentCancelReturnsToIdle(t *testing.T) {
	c := NewController(ControllerConfig[string]{
		Route: RouteActor,
		Load: func(ctx context.Context, param string) (*string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	c.Navigate(ctx, "nm1")
	assert.Equal(t, PhaseLoading, c.Snapshot().Phase)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, c.Wait(waitCtx))

	state := c.Snapshot()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Nil(t, state.Error, "cancellation is never reported")
}

func TestActorPage(t *testing.T) {
	titles := &fakeTitles{titles: map[string]catalog.Title{"m1": film("m1", "The Matrix", 8.7)}}
	deps := newDeps(titles, nil)
	deps.People = fakePersons{
		"nm1": {
			ID:       "nm1",
			Name:     "Keanu Reeves",
			Role:     catalog.RoleList("Actor", "Producer"),
			KnownFor: catalog.LooseList[catalog.TitleRef]{{ID: "m1"}},
		},
	}

	p, err := deps.NewPage(RouteActor, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "nm1")
	snap := settle(t, p)

	require.Equal(t, PhaseReady, snap.Phase)
	data := snap.Data.(*ActorData)
	assert.Equal(t, "Actor / Producer", data.RoleLabel)
	assert.Contains(t, data.AvatarURL, "name=Keanu+Reeves")

	known := snap.Enrichment.(enrich.TrackerState[enrich.ReferenceResult])
	require.Equal(t, enrich.StatusSettled, known.Status)
	require.Len(t, known.Result.Entries, 1)
	assert.Equal(t, "The Matrix", known.Result.Entries[0].Title.Name.String())
}

func TestActorPage_Failures(t *testing.T) {
	deps := newDeps(&fakeTitles{}, nil)
	p, err := deps.NewPage(RouteActor, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), " ")
	snap := settle(t, p)
	require.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, MsgActorMissingID, snap.Error.Message)

	p.Navigate(context.Background(), "nm404")
	snap = settle(t, p)
	require.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, KindNotFound, snap.Error.Kind)
	assert.Equal(t, MsgActorNotFound, snap.Error.Message)
	assert.Equal(t, "nm404", snap.Param)
}

func TestProfilePage(t *testing.T) {
	titles := &fakeTitles{titles: map[string]catalog.Title{"m1": film("m1", "Heat", 8.3)}}
	users := &fakeUsers{profile: &catalog.Profile{
		FullName:        "Ada Lovelace",
		LocationCity:    "London",
		LocationCountry: "UK",
		Favorites:       catalog.LooseList[catalog.FavoriteRef]{{ID: "m1"}},
	}}
	deps := newDeps(titles, nil)
	deps.Users = users
	deps.ProfileUserID = "U000000000001"

	p, err := deps.NewPage(RouteProfile, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "")
	snap := settle(t, p)

	require.Equal(t, PhaseReady, snap.Phase)
	assert.Equal(t, "U000000000001", users.gotID)
	assert.Equal(t, "London, UK", snap.Data.(*ProfileData).Location)
	favs := snap.Enrichment.(enrich.TrackerState[enrich.ReferenceResult])
	assert.Equal(t, 1, favs.Result.Resolved)
}

func TestProfilePage_UpstreamFailure(t *testing.T) {
	deps := newDeps(&fakeTitles{}, nil)
	deps.Users = &fakeUsers{err: &backend.StatusError{Service: endpoint.Users, URL: "/myprofile", StatusCode: 500}}

	p, err := deps.NewPage(RouteProfile, nil)
	require.NoError(t, err)

	p.Navigate(context.Background(), "")
	snap := settle(t, p)

	require.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, KindUpstream, snap.Error.Kind)
	assert.Equal(t, MsgProfileFailure, snap.Error.Message)
}

func TestPage_NotifyCalledOnChanges(t *testing.T) {
	var mu sync.Mutex
	count := 0
	titles := &fakeTitles{titles: map[string]catalog.Title{"m1": film("m1", "Heat", 8.3, "Al Pacino")}}
	p, err := newDeps(titles, nil).NewPage(RouteMovie, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	p.Navigate(context.Background(), "m1")
	settle(t, p)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, count, 3, fmt.Sprintf("got %d notifications", count))
}

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute(" Movie ")
	require.NoError(t, err)
	assert.Equal(t, RouteMovie, r)

	_, err = ParseRoute("settings")
	assert.Error(t, err)
}

func TestBrowse(t *testing.T) {
	titles := &fakeTitles{list: []catalog.Title{film("m2", "Speed", 7.2), film("m1", "The Matrix", 8.7)}}

	cards, err := newDeps(titles, nil).Browse(context.Background(), catalog.KindMovie)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "m1", cards[0].ID)
	assert.False(t, cards[0].Active)
}

func TestBrowse_Failure(t *testing.T) {
	titles := &fakeTitles{listErr: &backend.StatusError{Service: endpoint.Movies, StatusCode: 500}}

	_, err := newDeps(titles, nil).Browse(context.Background(), catalog.KindAll)
	var pageErr *PageError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, KindUpstream, pageErr.Kind)
	assert.Equal(t, MsgCatalogueFailure, pageErr.Message)
}
