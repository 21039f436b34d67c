package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/syllabi/internal/logfields"
)

// Scheduler wraps a gocron scheduler for periodic publishing.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// SchedulePublish runs task every interval. A run still in progress when the next
// one is due causes that one to be skipped.
func (s *Scheduler) SchedulePublish(ctx context.Context, interval time.Duration, task func(ctx context.Context) error) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Info("Running scheduled publish", slog.Duration("interval", interval))
			if err := task(ctx); err != nil {
				slog.Error("Scheduled publish failed", logfields.Error(err))
			}
		}),
		gocron.WithName("republish"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic publish job: %w", err)
	}
	return job.ID().String(), nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for a running job.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
