package catalog

import "strings"

// Person is a cast or crew record from the people service.
type Person struct {
	ID         Text                `json:"_id"`
	IMDbNameID Text                `json:"imdb_name_id,omitempty"`
	Name       Text                `json:"name"`
	PhotoURL   Text                `json:"photo_url,omitempty"`
	Biography  Text                `json:"biography,omitempty"`
	Role       Role                `json:"role"`
	URL        Text                `json:"url,omitempty"`
	KnownFor   LooseList[TitleRef] `json:"movie,omitempty"`
}

// Identifier returns the id used to link to the person's page.
func (p Person) Identifier() string {
	if id := p.ID.String(); id != "" {
		return id
	}
	return p.IMDbNameID.String()
}

// AvatarURL returns the photo, or a generated placeholder.
func (p Person) AvatarURL() string {
	return AvatarURL(p.Name.String(), p.PhotoURL.String())
}

// TitleRef is a partial title embedded in a person's "known for" list.
type TitleRef struct {
	ID          Text   `json:"_id"`
	Title       Text   `json:"title"`
	PosterURL   Text   `json:"poster_url,omitempty"`
	IMDbType    Text   `json:"imdb_type,omitempty"`
	Year        Number `json:"year"`
	ReleaseDate Text   `json:"release_date,omitempty"`
}

// Key returns the identity used to de-duplicate known-for entries: the id when
// present, otherwise the normalized title. Empty when neither is set.
func (r TitleRef) Key() string {
	if id := r.ID.String(); id != "" {
		return "id:" + strings.ToLower(id)
	}
	if title := r.Title.String(); title != "" {
		return "title:" + NameKey(title)
	}
	return ""
}
