// Package expiry runs the deferred second write behind every
// fire-and-forget signal: a reaction deletes itself after its TTL, a
// nudge clears itself after its flash window. Cleanup is owned by the
// originating process; readers keep their own freshness filter as the
// fallback for a sender that died before its timer fired.
package expiry

import (
	"log/slog"
	"time"
)

type Scheduler struct {
	clock  Clock
	logger *slog.Logger
}

type SchedulerOption func(*Scheduler)

func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func NewScheduler(clock Clock, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:  clock,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Schedule runs cleanup after d. The returned Timer cancels a cleanup
// that has not fired yet.
func (s *Scheduler) Schedule(d time.Duration, cleanup func() error) Timer {
	return s.clock.AfterFunc(d, func() {
		if err := cleanup(); err != nil {
			s.logger.Error("scheduled cleanup failed", "error", err)
		}
	})
}
