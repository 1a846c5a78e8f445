package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sportmeet/internal/domain"
)

const actionTimeout = 2 * time.Minute

// LifecycleActions is the slice of the participation state machine the
// scheduler drives: archive at end time, purge after retention.
type LifecycleActions interface {
	CleanupUnresolved(ctx context.Context, eventID string) error
	PurgeEvent(ctx context.Context, eventID string) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) domain.Timer {
	return time.AfterFunc(d, f)
}

// NewRealClock returns a Clock backed by the time package.
func NewRealClock() domain.Clock { return realClock{} }

// eventTimers is the live timer pair for one event. Either slot may be nil
// once its deadline has fired or when it ran immediately.
type eventTimers struct {
	cleanup domain.Timer
	purge   domain.Timer
}

type lifecycleScheduler struct {
	eventRepo domain.EventRepository
	actions   LifecycleActions
	clock     domain.Clock
	retention time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[string]*eventTimers
}

// NewLifecycleScheduler creates the in-memory event lifecycle scheduler.
// Timers live only in this process; ScheduleAllEvents re-derives them from
// storage after a restart.
func NewLifecycleScheduler(
	eventRepo domain.EventRepository,
	actions LifecycleActions,
	clock domain.Clock,
	retention time.Duration,
	logger *slog.Logger,
) domain.EventScheduler {
	return &lifecycleScheduler{
		eventRepo: eventRepo,
		actions:   actions,
		clock:     clock,
		retention: retention,
		logger:    logger,
		timers:    make(map[string]*eventTimers),
	}
}

// ScheduleEventDeletion replaces the event's timer pair. Existing timers are
// cancelled first so an end-time edit never leaves a stale deadline firing,
// and at most one live pair exists per event at any instant.
func (s *lifecycleScheduler) ScheduleEventDeletion(event *domain.Event) {
	eventID := event.ID
	now := s.clock.Now()
	cleanupDue := !event.EndTime.After(now)
	purgeAt := event.EndTime.Add(s.retention)
	purgeDue := !purgeAt.After(now)

	s.mu.Lock()
	s.cancelLocked(eventID)
	pair := &eventTimers{}
	if !cleanupDue && !purgeDue {
		pair.cleanup = s.clock.AfterFunc(event.EndTime.Sub(now), func() {
			s.fire(eventID, "cleanup", s.actions.CleanupUnresolved)
			s.clearTimer(eventID, pair, false)
		})
	}
	if !purgeDue {
		pair.purge = s.clock.AfterFunc(purgeAt.Sub(now), func() {
			s.fire(eventID, "purge", s.actions.PurgeEvent)
			s.clearTimer(eventID, pair, true)
		})
		s.timers[eventID] = pair
	}
	s.mu.Unlock()

	// Overdue deadlines run right away, outside the lock. An event past its
	// retention window needs no cleanup pass: the purge removes every row.
	if purgeDue {
		s.fire(eventID, "purge", s.actions.PurgeEvent)
	} else if cleanupDue {
		s.fire(eventID, "cleanup", s.actions.CleanupUnresolved)
	}
}

// CancelEvent discards the event's live timers, if any.
func (s *lifecycleScheduler) CancelEvent(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(eventID)
}

// ScheduleAllEvents rebuilds the timer set from storage: every surviving
// event gets the same treatment as on create/update, so overdue cleanups and
// purges run immediately and future deadlines get fresh timers.
func (s *lifecycleScheduler) ScheduleAllEvents(ctx context.Context) error {
	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	for _, event := range events {
		s.ScheduleEventDeletion(event)
	}
	s.logger.Info("event lifecycle timers rebuilt", "events", len(events))
	return nil
}

func (s *lifecycleScheduler) cancelLocked(eventID string) {
	pair, ok := s.timers[eventID]
	if !ok {
		return
	}
	if pair.cleanup != nil {
		pair.cleanup.Stop()
	}
	if pair.purge != nil {
		pair.purge.Stop()
	}
	delete(s.timers, eventID)
}

// clearTimer drops a fired timer's slot; entire is set when the purge timer
// fired and the event needs no further tracking. The pair pointer guards
// against a callback that raced a reschedule clearing the replacement pair.
func (s *lifecycleScheduler) clearTimer(eventID string, fired *eventTimers, entire bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.timers[eventID]
	if !ok || current != fired {
		return
	}
	if entire {
		delete(s.timers, eventID)
		return
	}
	current.cleanup = nil
}

// fire runs one lifecycle action. A background deadline has no caller to
// report to, so failures (and panics) are logged and abandoned; the event
// row stays behind for the next restart's reconciliation pass.
func (s *lifecycleScheduler) fire(eventID, kind string, action func(ctx context.Context, eventID string) error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("lifecycle action panicked", "event_id", eventID, "action", kind, "panic", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	if err := action(ctx, eventID); err != nil {
		s.logger.Error("lifecycle action failed", "event_id", eventID, "action", kind, "err", err)
	}
}
