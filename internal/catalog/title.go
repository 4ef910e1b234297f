package catalog

import "strings"

// Kind filters the catalogue by title type.
type Kind string

const (
	KindAll    Kind = ""
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ParseKind maps a query value to a Kind. Unknown values mean KindAll.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie
	case "series", "tv", "tvseries":
		return KindSeries
	default:
		return KindAll
	}
}

// Title is a movie or series record from the movies service.
type Title struct {
	ID                  Text     `json:"_id"`
	Name                Text     `json:"title"`
	Description         Text     `json:"description,omitempty"`
	Duration            Number   `json:"duration"`
	PosterURL           Text     `json:"poster_url,omitempty"`
	TrailerURL          Text     `json:"trailer_url,omitempty"`
	Genres              NameList `json:"genres,omitempty"`
	Rating              Number   `json:"rating"`
	Year                Number   `json:"year"`
	IMDbType            Text     `json:"imdb_type,omitempty"`
	SeriesTotalSeasons  Number   `json:"series_total_seasons"`
	SeriesTotalEpisodes Number   `json:"series_total_episodes"`
	ContentRating       Text     `json:"content_rating,omitempty"`
	OscarsWon           Number   `json:"oscars_won"`
	AwardsWins          Number   `json:"awards_wins"`
	AwardsNominations   Number   `json:"awards_nominations"`
	TopRatedRank        Number   `json:"top_rated_rank"`
	Country             Text     `json:"country,omitempty"`
	Languages           NameList `json:"languages,omitempty"`
	GenreInterests      NameList `json:"genre_interests,omitempty"`
	FirstFourActors     NameList `json:"first_four_actors,omitempty"`
	MainActors          NameList `json:"main_actors,omitempty"`
	Directors           NameList `json:"directors,omitempty"`
	Writers             NameList `json:"writers,omitempty"`
	Creators            NameList `json:"creator,omitempty"`
}

// RatingValue returns the rating, or 0 when absent.
func (t Title) RatingValue() float64 {
	return t.Rating.OrZero()
}

// IsSeries reports whether the record is a TV series.
func (t Title) IsSeries() bool {
	kind := strings.ToLower(t.IMDbType.String())
	return strings.HasPrefix(kind, "tv") || kind == "series"
}

// Kind returns the record's type. Records without a type count as movies.
func (t Title) Kind() Kind {
	if t.IsSeries() {
		return KindSeries
	}
	return KindMovie
}
