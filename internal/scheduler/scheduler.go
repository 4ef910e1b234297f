// Package scheduler runs Cinedeck's background jobs on gocron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/observability"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskRunning  = errors.New("task already running")
	ErrStopped      = errors.New("scheduler stopped")
)

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context) error

// TaskConfig describes a task to register.
type TaskConfig struct {
	ID          string
	Name        string
	Description string
	Cron        string // five-field expression
	Func        TaskFunc
	RunOnStart  bool
	// Timeout bounds one run. Zero means the run is bounded only by Stop.
	Timeout time.Duration
}

// TaskInfo is the externally visible state of a task.
type TaskInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Cron         string     `json:"cron"`
	Running      bool       `json:"running"`
	Runs         int        `json:"runs"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
}

type taskEntry struct {
	config TaskConfig
	job    gocron.Job

	running      bool
	runs         int
	lastRun      *time.Time
	lastDuration time.Duration
	lastError    string
}

// Scheduler owns the registered tasks. A task never overlaps itself: cron
// ticks, startup runs and manual triggers all go through claim.
type Scheduler struct {
	cron   gocron.Scheduler
	logger zerolog.Logger

	mu    sync.RWMutex
	tasks map[string]*taskEntry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron,
		logger: logger.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*taskEntry),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// RegisterTask adds a task. IDs must be unique.
func (s *Scheduler) RegisterTask(cfg TaskConfig) error {
	if cfg.ID == "" || cfg.Func == nil {
		return fmt.Errorf("task %q needs an id and a function", cfg.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[cfg.ID]; exists {
		return fmt.Errorf("task %q already registered", cfg.ID)
	}

	id := cfg.ID
	job, err := s.cron.NewJob(
		gocron.CronJob(cfg.Cron, false),
		gocron.NewTask(func() { s.trigger(id, "cron") }),
		gocron.WithName(cfg.Name),
		gocron.WithTags(id),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule task %q: %w", id, err)
	}
	s.tasks[id] = &taskEntry{config: cfg, job: job}

	s.logger.Info().
		Str("task", id).
		Str("cron", cfg.Cron).
		Bool("runOnStart", cfg.RunOnStart).
		Msg("Registered task")
	return nil
}

// Start begins cron scheduling and launches the RunOnStart tasks.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Starting scheduler")
	s.cron.Start()

	s.mu.RLock()
	ids := make([]string, 0, len(s.tasks))
	for id, entry := range s.tasks {
		if entry.config.RunOnStart {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.trigger(id, "startup")
	}
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping scheduler")
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	err := s.cron.Shutdown()
	s.wg.Wait()
	return err
}

// RunNow starts a task outside its schedule.
func (s *Scheduler) RunNow(taskID string) error {
	entry, err := s.claim(taskID)
	if err != nil {
		return err
	}
	go s.run(entry, "manual")
	return nil
}

// trigger starts a task if it is idle. A busy task skips the tick.
func (s *Scheduler) trigger(taskID, source string) {
	entry, err := s.claim(taskID)
	if err != nil {
		s.logger.Debug().Err(err).Str("task", taskID).Str("source", source).Msg("Task not started")
		return
	}
	go s.run(entry, source)
}

// claim marks the task running and registers it with the wait group.
func (s *Scheduler) claim(taskID string) (*taskEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return nil, ErrStopped
	}
	entry, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if entry.running {
		return nil, fmt.Errorf("%w: %s", ErrTaskRunning, taskID)
	}
	entry.running = true
	s.wg.Add(1)
	return entry, nil
}

func (s *Scheduler) run(entry *taskEntry, source string) {
	defer s.wg.Done()

	ctx := s.ctx
	if entry.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, entry.config.Timeout)
		defer cancel()
	}

	id := entry.config.ID
	started := time.Now()
	s.logger.Debug().Str("task", id).Str("source", source).Msg("Task started")

	err := entry.config.Func(ctx)
	elapsed := time.Since(started)
	s.record(entry, started, elapsed, err)

	switch {
	case err == nil:
		observability.TaskRuns.WithLabelValues(id, observability.OutcomeOK).Inc()
		s.logger.Debug().Str("task", id).Dur("duration", elapsed).Msg("Task completed")
	case errors.Is(err, context.Canceled):
		observability.TaskRuns.WithLabelValues(id, observability.OutcomeCancelled).Inc()
		s.logger.Debug().Str("task", id).Msg("Task cancelled")
	default:
		observability.TaskRuns.WithLabelValues(id, observability.OutcomeError).Inc()
		s.logger.Warn().Err(err).Str("task", id).Dur("duration", elapsed).Msg("Task failed")
	}
}

func (s *Scheduler) record(entry *taskEntry, started time.Time, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.running = false
	entry.runs++
	entry.lastRun = &started
	entry.lastDuration = elapsed
	entry.lastError = ""
	if err != nil {
		entry.lastError = err.Error()
	}
}

// ListTasks returns every task ordered by id.
func (s *Scheduler) ListTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TaskInfo, 0, len(s.tasks))
	for _, entry := range s.tasks {
		out = append(out, entry.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetTask returns one task.
func (s *Scheduler) GetTask(taskID string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	info := entry.info()
	return &info, nil
}

func (e *taskEntry) info() TaskInfo {
	info := TaskInfo{
		ID:          e.config.ID,
		Name:        e.config.Name,
		Description: e.config.Description,
		Cron:        e.config.Cron,
		Running:     e.running,
		Runs:        e.runs,
		LastRun:     e.lastRun,
		LastError:   e.lastError,
	}
	if e.lastRun != nil {
		info.LastDuration = e.lastDuration.Round(time.Millisecond).String()
	}
	if next, err := e.job.NextRun(); err == nil && !next.IsZero() {
		info.NextRun = &next
	}
	return info
}
