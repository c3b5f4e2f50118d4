// Package refresh periodically asks the state container to reload the list.
package refresh

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Target receives the periodic reload intent.
type Target interface {
	FetchTodos()
}

// Scheduler wraps a gocron scheduler running one reload job.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New schedules target.FetchTodos every interval. Options are passed to
// gocron, e.g. gocron.WithClock in tests.
func New(target Target, interval time.Duration, logger *slog.Logger, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive: %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			logger.Debug("Scheduled refresh")
			target.FetchTodos()
		}),
		gocron.WithName("refresh-todos"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create refresh job: %w", err)
	}

	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Start begins the schedule.
func (s *Scheduler) Start() {
	s.logger.Debug("Starting refresh scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for a running job to return.
func (s *Scheduler) Stop() error {
	s.logger.Debug("Stopping refresh scheduler")
	return s.scheduler.Shutdown()
}
