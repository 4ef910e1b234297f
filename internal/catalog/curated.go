package catalog

import "sort"

// CuratedPageSize is the number of titles shown on list views.
const CuratedPageSize = 18

// CuratedSelection returns the highest rated titles that have a title, a
// poster and a synopsis. Ties keep their input order. The input is not
// modified.
func CuratedSelection(titles []Title) []Title {
	selected := make([]Title, 0, len(titles))
	for _, t := range titles {
		if t.Name.Empty() || t.PosterURL.Empty() || t.Description.Empty() {
			continue
		}
		selected = append(selected, t)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RatingValue() > selected[j].RatingValue()
	})

	if len(selected) > CuratedPageSize {
		selected = selected[:CuratedPageSize]
	}
	return selected
}
