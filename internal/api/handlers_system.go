package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinedeck/cinedeck/internal/config"
	"github.com/cinedeck/cinedeck/internal/endpoint"
	"github.com/cinedeck/cinedeck/internal/scheduler"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type serviceInfo struct {
	Mode   string `json:"mode"`
	Target string `json:"target"`
}

// getStatus reports process, upstream and task state.
// GET /api/v1/status
func (s *Server) getStatus(c echo.Context) error {
	resolver := endpoint.New(s.cfg.Services.EndpointOptions())
	origin := strings.TrimRight(s.cfg.Services.ForwardOrigin, "/")

	services := make(map[endpoint.Service]serviceInfo, len(endpoint.Services))
	for _, svc := range endpoint.Services {
		if resolver.Direct(svc) {
			services[svc] = serviceInfo{Mode: "direct", Target: resolver.Base(svc)}
			continue
		}
		services[svc] = serviceInfo{Mode: "forwarded", Target: origin + resolver.URL(svc, "/")}
	}

	response := map[string]any{
		"version":   config.Version,
		"startTime": s.startTime.Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
		"services":  services,
	}
	if s.svc.Hub != nil {
		response["sessions"] = s.svc.Hub.ClientCount()
	}
	if s.svc.Health != nil {
		response["upstreams"] = s.svc.Health.Summary()
	}
	if s.svc.Scheduler != nil {
		response["tasks"] = s.svc.Scheduler.ListTasks()
	}
	return c.JSON(http.StatusOK, response)
}

// listTasks returns all scheduled tasks.
// GET /api/v1/scheduler/tasks
func (s *Server) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Scheduler.ListTasks())
}

// getTask returns a specific task.
// GET /api/v1/scheduler/tasks/:id
func (s *Server) getTask(c echo.Context) error {
	task, err := s.svc.Scheduler.GetTask(c.Param("id"))
	if err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// runTask triggers a task immediately.
// POST /api/v1/scheduler/tasks/:id/run
func (s *Server) runTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := s.svc.Scheduler.RunNow(taskID); err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Task started",
		"taskId":  taskID,
	})
}

func taskError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, scheduler.ErrTaskRunning):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, scheduler.ErrStopped):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return err
	}
}

// downloadLogs serves the active log file as an attachment.
// GET /api/v1/logs/download
func (s *Server) downloadLogs(c echo.Context) error {
	path := s.svc.Logs.FilePath()
	if path == "" {
		return echo.NewHTTPError(http.StatusNotFound, "file logging is disabled")
	}
	if _, err := os.Stat(path); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "log file not written yet")
	}
	return c.Attachment(path, filepath.Base(path))
}
