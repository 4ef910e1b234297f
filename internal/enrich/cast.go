package enrich

import (
	"context"
	"time"

	"github.com/cinedeck/cinedeck/internal/catalog"
)

// SectionCap bounds the number of people listed per section.
const SectionCap = 16

// CastNotice is shown when at least one cast lookup failed.
const CastNotice = "Unable to load detailed cast information. Some details may be missing."

// SectionSpec is a structural cast/crew group derived from a title.
type SectionSpec struct {
	ID           string
	Title        string
	FallbackRole string
	Names        []string
}

// Credit is one name in a section, with its resolved profile if any.
type Credit struct {
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	AvatarURL string          `json:"avatarUrl"`
	PersonID  string          `json:"personId,omitempty"`
	Person    *catalog.Person `json:"person"`
}

// Section is a resolved cast/crew group.
type Section struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Credits []Credit `json:"credits"`
}

// CastResult is the outcome of a cast resolve cycle.
type CastResult struct {
	Sections []Section `json:"sections"`
	Resolved int       `json:"resolved"`
	Failed   int       `json:"failed"`
	Notice   string    `json:"notice,omitempty"`
}

// TitleSections derives the cast and crew sections of a title. The main cast
// comes from first_four_actors, falling back to main_actors when that is
// empty. Names are normalized and capped; empty sections are dropped.
func TitleSections(t catalog.Title) []SectionSpec {
	actors := catalog.NormalizeNames(t.FirstFourActors)
	if len(actors) == 0 {
		actors = catalog.NormalizeNames(t.MainActors)
	}

	candidates := []SectionSpec{
		{ID: "actors", Title: "Main Cast", FallbackRole: "Cast", Names: actors},
		{ID: "directors", Title: "Directors", FallbackRole: "Director", Names: catalog.NormalizeNames(t.Directors)},
		{ID: "writers", Title: "Writers", FallbackRole: "Writer", Names: catalog.NormalizeNames(t.Writers)},
		{ID: "creators", Title: "Creators", FallbackRole: "Creator", Names: catalog.NormalizeNames(t.Creators)},
	}

	sections := make([]SectionSpec, 0, len(candidates))
	for _, s := range candidates {
		if len(s.Names) == 0 {
			continue
		}
		if len(s.Names) > SectionCap {
			s.Names = s.Names[:SectionCap]
		}
		sections = append(sections, s)
	}
	return sections
}

// ResolveCast looks up every distinct name across the title's sections
// concurrently and joins the results back into the sections. A failed lookup
// degrades to a nil person. The error is non-nil only when ctx ended.
func (e *Engine) ResolveCast(ctx context.Context, title catalog.Title) (*CastResult, error) {
	specs := TitleSections(title)

	seen := make(map[string]struct{})
	var names []string
	for _, s := range specs {
		for _, name := range s.Names {
			key := catalog.NameKey(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return &CastResult{Sections: []Section{}}, nil
	}

	start := time.Now()
	outcomes := fanOut(ctx, e.limit, names, e.searchPerson)
	observeCycle("cast", start)

	if err := ctx.Err(); err != nil {
		e.logger.Debug().Str("title", title.ID.String()).Msg("Cast resolve cancelled")
		return nil, err
	}

	profiles := make(map[string]*catalog.Person, len(names))
	result := &CastResult{}
	for i, name := range names {
		out := outcomes[i]
		e.recordFetch("cast", out.err)
		if out.err != nil {
			e.logger.Warn().Err(out.err).Str("name", name).Msg("Failed to resolve person")
			result.Failed++
			continue
		}
		if out.value != nil {
			result.Resolved++
		}
		profiles[catalog.NameKey(name)] = out.value
	}

	result.Sections = make([]Section, 0, len(specs))
	for _, s := range specs {
		section := Section{ID: s.ID, Title: s.Title, Credits: make([]Credit, 0, len(s.Names))}
		for _, name := range s.Names {
			section.Credits = append(section.Credits, newCredit(name, profiles[catalog.NameKey(name)], s.FallbackRole))
		}
		result.Sections = append(result.Sections, section)
	}

	if result.Failed > 0 {
		result.Notice = CastNotice
	}

	e.logger.Debug().
		Str("title", title.ID.String()).
		Int("names", len(names)).
		Int("resolved", result.Resolved).
		Int("failed", result.Failed).
		Msg("Resolved cast")
	return result, nil
}

func newCredit(name string, person *catalog.Person, fallbackRole string) Credit {
	credit := Credit{
		Name:      name,
		Role:      fallbackRole,
		AvatarURL: catalog.AvatarURL(name, ""),
	}
	if person == nil {
		return credit
	}
	if label := person.Role.Label(); label != "" {
		credit.Role = label
	}
	credit.AvatarURL = catalog.AvatarURL(name, person.PhotoURL.String())
	credit.PersonID = person.Identifier()
	credit.Person = person
	return credit
}
