package view

import "github.com/cinedeck/cinedeck/internal/catalog"

// Display carries the derived labels shown on a title's detail hero.
type Display struct {
	Rating        string   `json:"rating,omitempty"`
	Runtime       string   `json:"runtime,omitempty"`
	TypeLine      string   `json:"typeLine"`
	SeriesInfo    string   `json:"seriesInfo,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	ContentRating string   `json:"contentRatingBadge,omitempty"`
	TrailerEmbed  string   `json:"trailerEmbedUrl,omitempty"`
}

// TitleView is a title with its display labels.
type TitleView struct {
	catalog.Title
	Display Display `json:"display"`
}

// NewTitleView derives the display labels of t.
func NewTitleView(t catalog.Title) *TitleView {
	return &TitleView{
		Title: t,
		Display: Display{
			Rating:        t.RatingLabel(),
			Runtime:       t.RuntimeLabel(),
			TypeLine:      t.TypeLine(),
			SeriesInfo:    t.SeriesInfo(),
			Highlights:    t.Highlights(),
			ContentRating: t.ContentRatingBadge(),
			TrailerEmbed:  t.TrailerEmbedURL(),
		},
	}
}

// TitleCard is a compact rail entry.
type TitleCard struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl"`
	Rating    string `json:"rating,omitempty"`
	Meta      string `json:"meta"`
	Active    bool   `json:"active"`
}

func titleCards(titles []catalog.Title, activeID string) []TitleCard {
	cards := make([]TitleCard, 0, len(titles))
	for _, t := range titles {
		id := t.ID.String()
		cards = append(cards, TitleCard{
			ID:        id,
			Title:     t.Name.String(),
			PosterURL: t.PosterURL.String(),
			Rating:    t.RatingLabel(),
			Meta:      t.RailMeta(),
			Active:    activeID != "" && id == activeID,
		})
	}
	return cards
}
