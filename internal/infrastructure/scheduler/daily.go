// Package scheduler fires the daily run at a configured wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"aidigest/internal/ports"
)

// DailyScheduler triggers a job once per day at a fixed local time.
type DailyScheduler struct {
	hour     int
	minute   int
	location *time.Location
	stop     chan struct{}
	now      func() time.Time
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses an "HH:MM" trigger time in the given location.
func NewDailyScheduler(at string, loc *time.Location) (*DailyScheduler, error) {
	parsed, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule time %q: %w", at, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{
		hour:     parsed.Hour(),
		minute:   parsed.Minute(),
		location: loc,
		now:      time.Now,
	}, nil
}

// Start launches the trigger loop; the job runs in the loop goroutine so a
// slow run simply delays the next trigger rather than overlapping it.
func (s *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		for {
			next := s.nextTrigger()
			timer := time.NewTimer(next.Sub(s.now()))
			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-s.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the trigger goroutine.
func (s *DailyScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}

func (s *DailyScheduler) nextTrigger() time.Time {
	now := s.now().In(s.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
