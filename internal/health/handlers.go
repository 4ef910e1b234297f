package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for upstream health.
type Handlers struct {
	health *Service
	prober *Prober
}

// NewHandlers creates new health handlers.
func NewHandlers(health *Service, prober *Prober) *Handlers {
	return &Handlers{health: health, prober: prober}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.POST("/probe", h.Probe)
}

// GetAll returns the health of every upstream service.
// GET /api/v1/upstreams
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.Summary())
}

// Probe checks every upstream service now and returns the result.
// POST /api/v1/upstreams/probe
func (h *Handlers) Probe(c echo.Context) error {
	if h.prober == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "upstream probe is not configured")
	}
	_ = h.prober.ProbeAll(c.Request().Context())
	return c.JSON(http.StatusOK, h.health.Summary())
}
