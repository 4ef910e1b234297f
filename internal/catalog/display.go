package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const avatarBaseURL = "https://ui-avatars.com/api/"

var (
	youtubeEmbedPath = regexp.MustCompile(`/embed/([A-Za-z0-9_-]+)`)
	imdbVideoPath    = regexp.MustCompile(`/video/(?:imdb/)?(vi[0-9]+)`)
)

// AvatarURL returns photo when set, otherwise a generated initials avatar.
func AvatarURL(name, photo string) string {
	if photo = strings.TrimSpace(photo); photo != "" {
		return photo
	}
	return avatarBaseURL + "?name=" + url.QueryEscape(strings.TrimSpace(name)) +
		"&background=023047&color=ffffff&size=256&length=2"
}

// RatingLabel formats the rating with one decimal, or "" when absent.
func (t Title) RatingLabel() string {
	rating, ok := t.Rating.Float()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}

// RuntimeLabel formats the duration in minutes as "2h 05m" or "45m".
func (t Title) RuntimeLabel() string {
	minutes, ok := t.Duration.Int()
	if !ok || minutes <= 0 {
		return ""
	}
	hours := minutes / 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", hours, minutes%60)
}

// YearLabel returns the year as text, or "" when absent.
func (t Title) YearLabel() string {
	return numberLabel(t.Year)
}

// TypeLine returns "TV Series - 2008" or "Movie - 1999".
func (t Title) TypeLine() string {
	label := "Movie"
	if t.IsSeries() {
		label = "TV Series"
	}
	if year := t.YearLabel(); year != "" {
		return label + " - " + year
	}
	return label
}

// SeriesInfo returns "N seasons | M episodes" for series and "" otherwise.
func (t Title) SeriesInfo() string {
	if !t.IsSeries() {
		return ""
	}
	parts := make([]string, 0, 2)
	if n, ok := t.SeriesTotalSeasons.Int(); ok && n > 0 {
		parts = append(parts, plural(n, "season"))
	}
	if n, ok := t.SeriesTotalEpisodes.Int(); ok && n > 0 {
		parts = append(parts, plural(n, "episode"))
	}
	return strings.Join(parts, " | ")
}

// Highlights lists the ranking and award badges shown on the detail hero.
func (t Title) Highlights() []string {
	var items []string

	if rank, ok := t.TopRatedRank.Int(); ok && rank > 0 {
		label := "Top rated movie"
		if t.IsSeries() {
			label = "Top rated series"
		}
		items = append(items, fmt.Sprintf("%s #%d", label, rank))
	}

	if oscars, ok := t.OscarsWon.Int(); ok && oscars > 0 {
		if oscars == 1 {
			items = append(items, "Won 1 Oscar")
		} else {
			items = append(items, fmt.Sprintf("Won %d Oscars", oscars))
		}
	}

	var awards []string
	if wins, ok := t.AwardsWins.Int(); ok && wins > 0 {
		awards = append(awards, plural(wins, "win"))
	}
	if noms, ok := t.AwardsNominations.Int(); ok && noms > 0 {
		awards = append(awards, plural(noms, "nomination"))
	}
	if len(awards) > 0 {
		items = append(items, strings.Join(awards, " & ")+" total")
	}

	return items
}

// ContentRatingBadge returns the first letter or digit of the content rating,
// upper-cased.
func (t Title) ContentRatingBadge() string {
	for _, r := range string(t.ContentRating) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return strings.ToUpper(string(r))
		}
	}
	return ""
}

// RailMeta returns the "year | type" line shown under rail cards.
func (t Title) RailMeta() string {
	year := t.YearLabel()
	if year == "" {
		year = "N/A"
	}
	kind := t.IMDbType.String()
	if kind == "" {
		kind = "Unknown"
	}
	return year + " | " + kind
}

// TrailerEmbedURL maps the trailer link to an embeddable player URL.
func (t Title) TrailerEmbedURL() string {
	return TrailerEmbedURL(t.TrailerURL.String())
}

// TrailerEmbedURL converts YouTube and IMDb video links into embed URLs.
// Unrecognised or malformed links yield "".
func TrailerEmbedURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())

	switch {
	case strings.Contains(host, "youtube.com"):
		if id := parsed.Query().Get("v"); id != "" {
			return "https://www.youtube-nocookie.com/embed/" + id
		}
		if m := youtubeEmbedPath.FindStringSubmatch(parsed.Path); m != nil {
			return "https://www.youtube-nocookie.com/embed/" + m[1]
		}
	case strings.Contains(host, "youtu.be"):
		if id := strings.TrimPrefix(parsed.Path, "/"); id != "" {
			return "https://www.youtube-nocookie.com/embed/" + id
		}
	case strings.Contains(host, "imdb.com"):
		if m := imdbVideoPath.FindStringSubmatch(parsed.Path); m != nil {
			return "https://www.imdb.com/video/imdb/" + m[1] + "/imdb/embed?autoplay=false&width=854"
		}
	}
	return ""
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func numberLabel(n Number) string {
	v, ok := n.Float()
	if !ok || v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
