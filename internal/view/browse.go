package view

import (
	"context"

	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/endpoint"
)

// MsgCatalogueFailure is shown when the catalogue cannot be listed.
const MsgCatalogueFailure = "Unable to load titles."

// Browse returns the curated selection of the catalogue, optionally filtered
// by kind.
func (d Deps) Browse(ctx context.Context, kind catalog.Kind) ([]TitleCard, error) {
	list, err := d.Titles.ListTitles(ctx, kind)
	if err != nil {
		return nil, d.Classifier.Classify(endpoint.Movies, Messages{Failure: MsgCatalogueFailure}, err)
	}
	return titleCards(catalog.CuratedSelection(list), ""), nil
}
