package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/cinedeck/cinedeck/internal/api/middleware"
	"github.com/cinedeck/cinedeck/internal/api/ratelimit"
	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/config"
	"github.com/cinedeck/cinedeck/internal/health"
	"github.com/cinedeck/cinedeck/internal/observability"
	"github.com/cinedeck/cinedeck/internal/scheduler"
	"github.com/cinedeck/cinedeck/internal/view"
	"github.com/cinedeck/cinedeck/internal/websocket"
)

// PageFactory creates unmounted pages.
type PageFactory interface {
	NewPage(route view.Route, notify func()) (view.Page, error)
}

// Browser lists the curated catalogue.
type Browser interface {
	Browse(ctx context.Context, kind catalog.Kind) ([]view.TitleCard, error)
}

// LogsProvider locates the rotated log file. An empty path means file
// logging is off.
type LogsProvider interface {
	FilePath() string
}

// Services are the collaborators the API serves.
type Services struct {
	Pages     PageFactory
	Catalogue Browser
	Hub       *websocket.Hub
	Health    *health.Service
	Prober    *health.Prober
	Scheduler *scheduler.Scheduler
	Logs      LogsProvider
}

// Server handles HTTP requests for the Cinedeck API.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	svc       Services
	limiter   *ratelimit.Limiter
	logger    zerolog.Logger
	startTime time.Time
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, svc Services, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		cfg:       cfg,
		svc:       svc,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			observability.HTTPRequestDuration.
				WithLabelValues(v.Method, routePath(c), strconv.Itoa(v.Status)).
				Observe(v.Latency.Seconds())

			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Err(v.Error).
					Msg("request error")
				return nil
			}
			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("requestId", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	s.echo.Use(middleware.BodyLimit("64K"))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// routePath labels metrics by route template rather than raw URL.
func routePath(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// StartCleanup periodically evicts expired rate limit buckets until ctx ends.
func (s *Server) StartCleanup(ctx context.Context, interval time.Duration) {
	if s.limiter != nil {
		s.limiter.StartCleanup(ctx, interval)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
