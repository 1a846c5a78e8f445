package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"sportmeet/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory fakes shared by the service tests. The participant store keeps
// the (event, user) uniqueness and capacity invariants under a mutex so the
// concurrency tests exercise the same guarantees the SQL layer provides.

type memEventRepo struct {
	mu     sync.Mutex
	seq    int
	events map[string]*domain.Event
	parts  *memParticipantRepo
	err    error
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[string]*domain.Event)}
}

func (m *memEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		m.seq++
		e.ID = fmt.Sprintf("ev-%d", m.seq)
	}
	m.events[e.ID] = e
	return nil
}

func (m *memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// Return a copy, as a row scan would.
	cp := *e
	return &cp, nil
}

func (m *memEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Event
	for _, e := range m.events {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEventRepo) ListAll(ctx context.Context) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memEventRepo) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.LocationID != nil {
		e.LocationID = *upd.LocationID
	}
	if upd.SportID != nil {
		e.SportID = *upd.SportID
	}
	if upd.StartTime != nil {
		e.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		e.EndTime = *upd.EndTime
	}
	if upd.Level != nil {
		e.Level = *upd.Level
	}
	if upd.MinAge != nil {
		e.MinAge = *upd.MinAge
	}
	if upd.MaxAge != nil {
		e.MaxAge = *upd.MaxAge
	}
	if upd.Capacity != nil {
		e.Capacity = *upd.Capacity
	}
	if upd.ImagePath != nil {
		e.ImagePath = *upd.ImagePath
	}
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (m *memEventRepo) DeleteCascade(ctx context.Context, eventID string) error {
	m.mu.Lock()
	_, ok := m.events[eventID]
	delete(m.events, eventID)
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	if m.parts != nil {
		m.parts.deleteByEvent(eventID)
	}
	return nil
}

type memParticipantRepo struct {
	mu     sync.Mutex
	seq    int
	rows   map[string]*domain.Participant // id -> row
	events *memEventRepo                  // capacity source for Approve
	err    error
}

func newMemParticipantRepo(events *memEventRepo) *memParticipantRepo {
	r := &memParticipantRepo{rows: make(map[string]*domain.Participant), events: events}
	if events != nil {
		events.parts = r
	}
	return r
}

func (m *memParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.EventID == p.EventID && row.UserID == p.UserID {
			return domain.ErrAlreadyParticipant
		}
	}
	m.seq++
	p.ID = fmt.Sprintf("p-%d", m.seq)
	m.rows[p.ID] = p
	return nil
}

func (m *memParticipantRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.EventID == eventID && row.UserID == userID {
			return row, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memParticipantRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Participant
	for _, row := range m.rows {
		if row.EventID == eventID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memParticipantRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Participant
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memParticipantRepo) CountAcceptedPlayers(ctx context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countAcceptedPlayersLocked(eventID), nil
}

func (m *memParticipantRepo) countAcceptedPlayersLocked(eventID string) int {
	n := 0
	for _, row := range m.rows {
		if row.EventID == eventID && row.Role == domain.RolePlayer && row.Status == domain.StatusAccepted {
			n++
		}
	}
	return n
}

func (m *memParticipantRepo) UpdateStatus(ctx context.Context, participantID, status string) (*domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[participantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now()
	return row, nil
}

// Approve mirrors the SQL implementation: the capacity check and the status
// flip happen under one lock.
func (m *memParticipantRepo) Approve(ctx context.Context, eventID, participantID string) (*domain.Participant, error) {
	m.events.mu.Lock()
	event, ok := m.events.events[eventID]
	m.events.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[participantID]
	if !ok || row.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	if !domain.CanApprove(event, m.countAcceptedPlayersLocked(eventID)) {
		return nil, domain.ErrEventFull
	}
	row.Status = domain.StatusAccepted
	row.UpdatedAt = time.Now()
	return row, nil
}

func (m *memParticipantRepo) Delete(ctx context.Context, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[participantID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, participantID)
	return nil
}

func (m *memParticipantRepo) DeleteByEventIDAndStatuses(ctx context.Context, eventID string, statuses []string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, row := range m.rows {
		if row.EventID != eventID {
			continue
		}
		for _, st := range statuses {
			if row.Status == st {
				delete(m.rows, id)
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *memParticipantRepo) deleteByEvent(eventID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if row.EventID == eventID {
			delete(m.rows, id)
		}
	}
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	m.seq++
	u.ID = fmt.Sprintf("u-%d", m.seq)
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type memFileStore struct {
	mu      sync.Mutex
	deleted []string
}

func (m *memFileStore) Save(_ io.Reader, ext string) (string, error) {
	return "img" + ext, nil
}

func (m *memFileStore) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, path)
	return nil
}

type stubScheduler struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (s *stubScheduler) ScheduleEventDeletion(e *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, e.ID)
}

func (s *stubScheduler) CancelEvent(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, eventID)
}

func (s *stubScheduler) ScheduleAllEvents(ctx context.Context) error { return nil }

// fakeClock drives scheduler tests without real delays. Advance moves the
// clock and fires due timers in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) domain.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.deadline.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, t := range due {
		t.f()
	}
}

// liveTimers counts timers that have neither fired nor been stopped.
func (c *fakeClock) liveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
