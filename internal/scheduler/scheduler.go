package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-records/internal/weather"
)

// StatsSource reports service statistics.
type StatsSource interface {
	Stats() weather.Stats
}

// Scheduler periodically logs record store and provider statistics.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    StatsSource
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. A non-positive interval disables reporting.
func New(interval time.Duration, source StatsSource, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: stats interval not set; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.report)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) report() {
	st := s.source.Stats()
	s.logger.Info("scheduler: weather records stats",
		"records", st.Records,
		"provider", st.Provider,
		"breaker", st.Breaker)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
