package domain

import (
	"context"
	"time"
)

// Timer is a single cancellable deadline. Stop reports whether the timer was
// stopped before firing.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock time and timer creation so scheduler tests can
// substitute a fake and fire deadlines without real delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// EventScheduler owns the time-driven event lifecycle: one cleanup action at
// the event's end time and one delete action after the retention window.
type EventScheduler interface {
	// ScheduleEventDeletion registers (or replaces) both lifecycle timers for
	// the event. Deadlines already in the past run immediately.
	ScheduleEventDeletion(event *Event)
	// CancelEvent discards any live timers for the event id. Called when an
	// event is deleted ahead of its schedule.
	CancelEvent(eventID string)
	// ScheduleAllEvents re-derives all timers from storage. Called once at
	// process start.
	ScheduleAllEvents(ctx context.Context) error
}
