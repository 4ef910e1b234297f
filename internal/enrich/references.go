package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/catalog"
)

const (
	KnownForNotice  = "Unable to load some titles this person is known for. Some details may be missing."
	FavoritesNotice = "Unable to load some favourite titles. Some details may be missing."
)

// Reference is a partial title reference with its resolved title, if any.
type Reference struct {
	Ref   catalog.TitleRef `json:"ref"`
	Title *catalog.Title   `json:"title"`
}

// ReferenceResult is the outcome of a known-for or favourites cycle.
type ReferenceResult struct {
	Entries  []Reference `json:"entries"`
	Resolved int         `json:"resolved"`
	Failed   int         `json:"failed"`
	Notice   string      `json:"notice,omitempty"`
}

// ResolveKnownFor resolves a person's "known for" entries. Entries with an id
// are fetched by id; the rest are matched by title against the catalogue,
// which is listed at most once per call and only if needed.
func (e *Engine) ResolveKnownFor(ctx context.Context, person catalog.Person) (*ReferenceResult, error) {
	return e.resolveReferences(ctx, "known_for", person.KnownFor, KnownForNotice)
}

// ResolveFavorites resolves the titles a user saved.
func (e *Engine) ResolveFavorites(ctx context.Context, profile catalog.Profile) (*ReferenceResult, error) {
	refs := make([]catalog.TitleRef, 0, len(profile.Favorites))
	for _, fav := range profile.Favorites {
		refs = append(refs, catalog.TitleRef{ID: fav.ID, Title: fav.Title})
	}
	return e.resolveReferences(ctx, "favorites", refs, FavoritesNotice)
}

func (e *Engine) resolveReferences(ctx context.Context, kind string, refs []catalog.TitleRef, notice string) (*ReferenceResult, error) {
	seen := make(map[string]struct{}, len(refs))
	entries := make([]Reference, 0, len(refs))
	var pending []int
	for _, ref := range refs {
		key := ref.Key()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pending = append(pending, len(entries))
		}
		entries = append(entries, Reference{Ref: ref})
	}

	result := &ReferenceResult{Entries: entries}
	if len(pending) == 0 {
		return result, nil
	}

	catalogue := sync.OnceValues(func() (map[string]*catalog.Title, error) {
		titles, err := e.titles.ListTitles(ctx, catalog.KindAll)
		if err != nil {
			return nil, err
		}
		index := make(map[string]*catalog.Title, len(titles))
		for i := range titles {
			key := catalog.NameKey(titles[i].Name.String())
			if _, ok := index[key]; !ok && key != "" {
				index[key] = &titles[i]
			}
		}
		return index, nil
	})

	start := time.Now()
	outcomes := fanOut(ctx, e.limit, pending, func(ctx context.Context, idx int) (*catalog.Title, error) {
		ref := entries[idx].Ref
		if id := ref.ID.String(); id != "" {
			return e.titles.GetTitle(ctx, id)
		}
		index, err := catalogue()
		if err != nil {
			return nil, err
		}
		return index[catalog.NameKey(ref.Title.String())], nil
	})
	observeCycle(kind, start)

	if err := ctx.Err(); err != nil {
		e.logger.Debug().Str("kind", kind).Msg("Reference resolve cancelled")
		return nil, err
	}

	for i, idx := range pending {
		out := outcomes[i]
		ref := entries[idx].Ref
		switch {
		case out.err == nil:
			e.recordFetch(kind, nil)
			if out.value != nil {
				result.Resolved++
				entries[idx].Title = out.value
			}
		case errors.Is(out.err, backend.ErrNotFound):
			e.recordFetch(kind, out.err)
			e.logger.Debug().Str("kind", kind).Str("id", ref.ID.String()).Msg("Referenced title not found")
			result.Failed++
		default:
			e.recordFetch(kind, out.err)
			e.logger.Warn().Err(out.err).
				Str("kind", kind).
				Str("id", ref.ID.String()).
				Str("title", ref.Title.String()).
				Msg("Failed to resolve title reference")
			result.Failed++
		}
	}

	if result.Failed > 0 {
		result.Notice = notice
	}
	return result, nil
}
