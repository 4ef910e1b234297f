// Package tasks registers the background tasks.
package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/config"
	"github.com/cinedeck/cinedeck/internal/scheduler"
)

// UpstreamProbeTaskID identifies the upstream probe task.
const UpstreamProbeTaskID = "upstream-health"

// Prober checks every upstream service.
type Prober interface {
	ProbeAll(ctx context.Context) error
}

// RegisterUpstreamProbeTask schedules the upstream probe. It also runs once at
// startup so the status endpoint is populated early.
func RegisterUpstreamProbeTask(sched *scheduler.Scheduler, prober Prober, cfg config.HealthConfig, logger zerolog.Logger) error {
	cron := cfg.ProbeCron
	if cron == "" {
		cron = config.Default().Health.ProbeCron
	}

	log := logger.With().Str("task", UpstreamProbeTaskID).Logger()
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          UpstreamProbeTaskID,
		Name:        "Upstream Health Check",
		Description: "Probes the movies, people and users services",
		Cron:        cron,
		RunOnStart:  true,
		Timeout:     30 * time.Second,
		Func: func(ctx context.Context) error {
			if err := prober.ProbeAll(ctx); err != nil {
				log.Debug().Err(err).Msg("Some upstream services are unhealthy")
				return err
			}
			return nil
		},
	})
}
