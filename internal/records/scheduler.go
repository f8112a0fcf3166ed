package records

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler runs the refresh job once at startup, then daily at a fixed
// wall-clock time. A failed run is logged and retried on the next tick; it
// never takes the process down.
type Scheduler struct {
	job *RefreshJob
	at  string // "15:04"
}

// NewScheduler creates a scheduler firing daily at the given HH:MM time.
func NewScheduler(job *RefreshJob, at string) (*Scheduler, error) {
	if _, err := time.Parse("15:04", at); err != nil {
		return nil, fmt.Errorf("invalid refresh time %q: %w", at, err)
	}
	return &Scheduler{job: job, at: at}, nil
}

// Start launches the scheduler loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	// Catch up on drift from downtime before waiting for the first tick.
	s.runOnce(ctx)

	for {
		next := nextRun(time.Now(), s.at)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("Status refresh scheduler stopped")
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.job.Run(ctx, time.Now()); err != nil {
		log.WithError(err).Error("Status refresh run failed")
	}
}

// nextRun returns the next occurrence of the HH:MM wall-clock time strictly
// after now.
func nextRun(now time.Time, at string) time.Time {
	t, _ := time.Parse("15:04", at)
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
