package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/view"
)

// listTitles returns the curated catalogue.
// GET /api/v1/titles?type=movie|series
func (s *Server) listTitles(c echo.Context) error {
	kind := catalog.ParseKind(c.QueryParam("type"))

	cards, err := s.svc.Catalogue.Browse(c.Request().Context(), kind)
	if err != nil {
		var pageErr *view.PageError
		if errors.As(err, &pageErr) {
			return c.JSON(statusFor(pageErr), map[string]any{"error": pageErr})
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"items": cards})
}

// getTitle renders the movie page for a title.
// GET /api/v1/titles/:id
func (s *Server) getTitle(c echo.Context) error {
	return s.renderPage(c, view.RouteMovie, c.Param("id"))
}

// getHome renders the movie page without a title.
// GET /api/v1/home
func (s *Server) getHome(c echo.Context) error {
	return s.renderPage(c, view.RouteMovie, "")
}

// getPerson renders the actor page.
// GET /api/v1/people/:id
func (s *Server) getPerson(c echo.Context) error {
	return s.renderPage(c, view.RouteActor, c.Param("id"))
}

// getProfile renders the profile page.
// GET /api/v1/profile
func (s *Server) getProfile(c echo.Context) error {
	return s.renderPage(c, view.RouteProfile, "")
}

// renderPage mounts a page for the request, waits for it and its enrichment
// to settle, and responds with the snapshot.
func (s *Server) renderPage(c echo.Context, route view.Route, param string) error {
	ctx := c.Request().Context()

	page, err := s.svc.Pages.NewPage(route, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	defer page.Unmount()

	page.Navigate(ctx, param)
	if err := page.Wait(ctx); err != nil {
		s.logger.Debug().Err(err).Str("route", string(route)).Str("param", param).Msg("Page did not settle")
		return c.JSON(http.StatusGatewayTimeout, page.Snapshot())
	}

	snap := page.Snapshot()
	return c.JSON(statusFor(snap.Error), snap)
}

func statusFor(err *view.PageError) int {
	if err == nil {
		return http.StatusOK
	}
	if err.Kind == view.KindNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
