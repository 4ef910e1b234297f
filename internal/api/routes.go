package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinedeck/cinedeck/internal/api/ratelimit"
	"github.com/cinedeck/cinedeck/internal/health"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1")
	if limit := s.cfg.Server.RateLimitPerMinute; limit > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: limit})
		api.Use(s.limiter.Middleware(func(c echo.Context) bool {
			return c.Path() == "/api/v1/ws"
		}))
	}

	api.GET("/status", s.getStatus)

	api.GET("/titles", s.listTitles)
	api.GET("/titles/:id", s.getTitle)
	api.GET("/home", s.getHome)
	api.GET("/people/:id", s.getPerson)
	api.GET("/profile", s.getProfile)

	if s.svc.Hub != nil {
		api.GET("/ws", s.svc.Hub.HandleWebSocket)
	}

	if s.svc.Health != nil {
		health.NewHandlers(s.svc.Health, s.svc.Prober).RegisterRoutes(api.Group("/upstreams"))
	}

	if s.svc.Scheduler != nil {
		tasks := api.Group("/scheduler/tasks")
		tasks.GET("", s.listTasks)
		tasks.GET("/:id", s.getTask)
		tasks.POST("/:id/run", s.runTask)
	}

	if s.svc.Logs != nil {
		api.GET("/logs/download", s.downloadLogs)
	}
}
