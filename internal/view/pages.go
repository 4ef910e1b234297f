package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/endpoint"
	"github.com/cinedeck/cinedeck/internal/enrich"
)

// Route names a page.
type Route string

const (
	RouteMovie   Route = "movie"
	RouteActor   Route = "actor"
	RouteProfile Route = "profile"
)

// ParseRoute validates a route name.
func ParseRoute(s string) (Route, error) {
	switch r := Route(strings.ToLower(strings.TrimSpace(s))); r {
	case RouteMovie, RouteActor, RouteProfile:
		return r, nil
	default:
		return "", fmt.Errorf("unknown route %q", s)
	}
}

// Page messages.
const (
	MsgMovieNotFound   = "We could not find that title in the catalogue."
	MsgMovieFailure    = "Unable to load movie data."
	MsgRailFailure     = "Unable to load more titles right now."
	MsgActorMissingID  = "The requested actor identifier is missing."
	MsgActorNotFound   = "We could not find that actor in the database."
	MsgActorFailure    = "Unable to load actor details."
	MsgProfileNotFound = "We could not find that profile."
	MsgProfileFailure  = "Unable to load profile."
)

// Snapshot is the serializable state of a page.
type Snapshot struct {
	Route      Route      `json:"route"`
	Param      string     `json:"param"`
	Phase      Phase      `json:"phase"`
	Error      *PageError `json:"error,omitempty"`
	Data       any        `json:"data,omitempty"`
	Enrichment any        `json:"enrichment,omitempty"`
	Enriching  bool       `json:"enriching"`
}

// Page is a mounted view: a primary entity plus its enrichment.
type Page interface {
	Route() Route
	Navigate(ctx context.Context, param string)
	Unmount()
	Snapshot() Snapshot
	// Wait blocks until the current navigation and its enrichment settle.
	Wait(ctx context.Context) error
}

// PersonSource reads people by id.
type PersonSource interface {
	GetPerson(ctx context.Context, id string) (*catalog.Person, error)
}

// ProfileSource reads user profiles.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*catalog.Profile, error)
}

// Deps holds everything pages need.
type Deps struct {
	Titles        enrich.TitleSource
	People        PersonSource
	Users         ProfileSource
	Engine        *enrich.Engine
	Classifier    Classifier
	ProfileUserID string
	Logger        zerolog.Logger
}

// NewPage creates an unmounted page for route. notify is called after every
// state change of the page and must not block.
func (d Deps) NewPage(route Route, notify func()) (Page, error) {
	switch route {
	case RouteMovie:
		return d.newMoviePage(notify), nil
	case RouteActor:
		return d.newActorPage(notify), nil
	case RouteProfile:
		return d.newProfilePage(notify), nil
	default:
		return nil, fmt.Errorf("unknown route %q", route)
	}
}

// page pairs a controller with the tracker of its dependent enrichment. The
// tracker is keyed by the navigation parameter.
type page[T, R any] struct {
	route   Route
	ctrl    *Controller[T]
	tracker *enrich.Tracker[R]
}

func (p *page[T, R]) Route() Route {
	return p.route
}

func (p *page[T, R]) Navigate(ctx context.Context, param string) {
	p.ctrl.Navigate(ctx, param)
}

func (p *page[T, R]) Unmount() {
	p.ctrl.Unmount()
}

func (p *page[T, R]) Wait(ctx context.Context) error {
	if err := p.ctrl.Wait(ctx); err != nil {
		return err
	}
	return p.tracker.Wait(ctx)
}

func (p *page[T, R]) Snapshot() Snapshot {
	state := p.ctrl.Snapshot()
	enr := p.tracker.Snapshot()

	snap := Snapshot{
		Route: p.route,
		Param: state.Param,
		Phase: state.Phase,
		Error: state.Error,
	}
	if state.Data != nil {
		snap.Data = state.Data
	}
	if state.Phase == PhaseReady && enr.Status != enrich.StatusIdle && enr.Key == state.Param {
		snap.Enrichment = enr
		snap.Enriching = enr.Status == enrich.StatusLoading
	}
	return snap
}

func newPage[T, R any](route Route, notify func(), logger zerolog.Logger,
	load func(context.Context, string) (*T, error),
	enrichFn func(ctx context.Context, data *T) (*R, error),
) *page[T, R] {
	p := &page[T, R]{route: route}
	p.tracker = enrich.NewTracker[R](notify, logger.With().Str("route", string(route)).Logger())
	p.ctrl = NewController(ControllerConfig[T]{
		Route: route,
		Load:  load,
		OnReady: func(ctx context.Context, param string, data *T) {
			p.tracker.Start(ctx, param, func(ctx context.Context) (*R, error) {
				return enrichFn(ctx, data)
			})
		},
		OnReset: p.tracker.Reset,
		Notify:  notify,
	}, logger)
	return p
}

// MovieData is the primary state of the movie page.
type MovieData struct {
	Hero       *TitleView  `json:"hero"`
	Rail       []TitleCard `json:"rail"`
	RailNotice string      `json:"railNotice,omitempty"`
}

func (d Deps) newMoviePage(notify func()) Page {
	return newPage(RouteMovie, notify, d.Logger, d.loadMovie,
		func(ctx context.Context, data *MovieData) (*enrich.CastResult, error) {
			if data.Hero == nil {
				return &enrich.CastResult{Sections: []enrich.Section{}}, nil
			}
			return d.Engine.ResolveCast(ctx, data.Hero.Title)
		})
}

func (d Deps) loadMovie(ctx context.Context, id string) (*MovieData, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return d.loadHome(ctx)
	}

	var (
		title    *catalog.Title
		titleErr error
		list     []catalog.Title
		listErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		title, titleErr = d.Titles.GetTitle(ctx, id)
		return nil
	})
	g.Go(func() error {
		list, listErr = d.Titles.ListTitles(ctx, catalog.KindAll)
		return nil
	})
	_ = g.Wait()

	if titleErr != nil {
		return nil, d.Classifier.Classify(endpoint.Movies, Messages{
			NotFound: MsgMovieNotFound,
			Failure:  MsgMovieFailure,
		}, titleErr)
	}

	data := &MovieData{Hero: NewTitleView(*title)}
	if listErr != nil {
		d.Logger.Warn().Err(listErr).Str("title", id).Msg("Failed to load rail")
		data.Rail = []TitleCard{}
		data.RailNotice = MsgRailFailure
		return data, nil
	}
	data.Rail = titleCards(catalog.CuratedSelection(list), title.ID.String())
	return data, nil
}

func (d Deps) loadHome(ctx context.Context) (*MovieData, error) {
	list, err := d.Titles.ListTitles(ctx, catalog.KindAll)
	if err != nil {
		return nil, d.Classifier.Classify(endpoint.Movies, Messages{Failure: MsgMovieFailure}, err)
	}

	selection := catalog.CuratedSelection(list)
	data := &MovieData{Rail: titleCards(selection, "")}
	if len(selection) > 0 {
		data.Hero = NewTitleView(selection[0])
		data.Rail = titleCards(selection, selection[0].ID.String())
	}
	return data, nil
}

// ActorData is the primary state of the actor page.
type ActorData struct {
	Person    catalog.Person `json:"person"`
	AvatarURL string         `json:"avatarUrl"`
	RoleLabel string         `json:"roleLabel,omitempty"`
}

func (d Deps) newActorPage(notify func()) Page {
	return newPage(RouteActor, notify, d.Logger, d.loadActor,
		func(ctx context.Context, data *ActorData) (*enrich.ReferenceResult, error) {
			return d.Engine.ResolveKnownFor(ctx, data.Person)
		})
}

func (d Deps) loadActor(ctx context.Context, id string) (*ActorData, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &PageError{Kind: KindNotFound, Message: MsgActorMissingID}
	}

	person, err := d.People.GetPerson(ctx, id)
	if err != nil {
		return nil, d.Classifier.Classify(endpoint.People, Messages{
			NotFound: MsgActorNotFound,
			Failure:  MsgActorFailure,
		}, err)
	}

	return &ActorData{
		Person:    *person,
		AvatarURL: person.AvatarURL(),
		RoleLabel: person.Role.Label(),
	}, nil
}

// ProfileData is the primary state of the profile page.
type ProfileData struct {
	Profile  catalog.Profile `json:"profile"`
	Location string          `json:"location,omitempty"`
}

func (d Deps) newProfilePage(notify func()) Page {
	return newPage(RouteProfile, notify, d.Logger, d.loadProfile,
		func(ctx context.Context, data *ProfileData) (*enrich.ReferenceResult, error) {
			return d.Engine.ResolveFavorites(ctx, data.Profile)
		})
}

// loadProfile ignores the navigation parameter; the profile shown is the
// configured user.
func (d Deps) loadProfile(ctx context.Context, _ string) (*ProfileData, error) {
	profile, err := d.Users.GetProfile(ctx, d.ProfileUserID)
	if err != nil {
		return nil, d.Classifier.Classify(endpoint.Users, Messages{
			NotFound: MsgProfileNotFound,
			Failure:  MsgProfileFailure,
		}, err)
	}
	return &ProfileData{Profile: *profile, Location: profile.Location()}, nil
}
