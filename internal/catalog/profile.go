package catalog

import "strings"

// Profile is a user record from the users service.
type Profile struct {
	ID              Text                   `json:"_id"`
	UserID          Text                   `json:"imdb_user_id,omitempty"`
	FullName        Text                   `json:"full_name"`
	Username        Text                   `json:"username"`
	AboutMe         Text                   `json:"about_me,omitempty"`
	Birthdate       Text                   `json:"birthdate,omitempty"`
	LocationCity    Text                   `json:"location_city,omitempty"`
	LocationCountry Text                   `json:"location_country,omitempty"`
	Favorites       LooseList[FavoriteRef] `json:"favorites"`
	Reviews         LooseList[Review]      `json:"reviews"`
}

// Location joins city and country, skipping whichever is missing.
func (p Profile) Location() string {
	parts := make([]string, 0, 2)
	for _, part := range []Text{p.LocationCity, p.LocationCountry} {
		if s := part.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// FavoriteRef points at a title the user saved.
type FavoriteRef struct {
	ID    Text `json:"_id"`
	Title Text `json:"title,omitempty"`
}

// Review is a user's review of a title.
type Review struct {
	Text       Text `json:"review_text"`
	DatePosted Text `json:"date_posted,omitempty"`
	MovieID    Text `json:"movie_id,omitempty"`
}
