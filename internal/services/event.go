package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportmeet/internal/domain"
)

type eventService struct {
	eventRepo       domain.EventRepository
	participantRepo domain.ParticipantRepository
	participation   domain.ParticipationService
	scheduler       domain.EventScheduler
	fileStore       domain.FileStore
	contextTimeout  time.Duration
}

// NewEventService creates an EventService. The scheduler receives every
// end-time change so lifecycle timers stay in step with storage.
func NewEventService(
	eventRepo domain.EventRepository,
	participantRepo domain.ParticipantRepository,
	participation domain.ParticipationService,
	scheduler domain.EventScheduler,
	fileStore domain.FileStore,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		participation:   participation,
		scheduler:       scheduler,
		fileStore:       fileStore,
		contextTimeout:  timeout,
	}
}

// CreateEvent stores the event, makes the owner its accepted organizer, and
// registers the lifecycle timers.
func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return fmt.Errorf("event owner is required: %w", domain.ErrInvalidInput)
	}
	if err := validateEventTimes(event.StartTime, event.EndTime); err != nil {
		return err
	}
	if event.Capacity < 0 || (event.MinAge > 0 && event.MaxAge > 0 && event.MinAge > event.MaxAge) {
		return domain.ErrInvalidInput
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	organizer := domain.NewParticipant(event.ID, event.OwnerID, domain.RoleOrganizer, domain.StatusAccepted, "", now)
	if err := s.participantRepo.Create(ctx, organizer); err != nil {
		return fmt.Errorf("create organizer participation: %w", err)
	}

	s.scheduler.ScheduleEventDeletion(event)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, []*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	participants, err := s.participantRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list participations: %w", err)
	}
	if participants == nil {
		participants = []*domain.Participant{}
	}
	return event, participants, nil
}

// UpdateEvent applies an owner's partial update. When the end time moves,
// the old lifecycle timers are replaced so nothing fires at the stale time.
func (s *eventService) UpdateEvent(ctx context.Context, eventID, ownerID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	start := event.StartTime
	if upd.StartTime != nil {
		start = *upd.StartTime
	}
	end := event.EndTime
	if upd.EndTime != nil {
		end = *upd.EndTime
	}
	if err := validateEventTimes(start, end); err != nil {
		return nil, err
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	if upd.EndTime != nil && !updated.EndTime.Equal(event.EndTime) {
		s.scheduler.ScheduleEventDeletion(updated)
	}
	return updated, nil
}

// DeleteEvent is the owner-initiated early deletion: timers are cancelled
// first so no dangling delete action fires on the removed row.
func (s *eventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	s.scheduler.CancelEvent(eventID)
	if err := s.participation.PurgeEvent(ctx, eventID); err != nil {
		return fmt.Errorf("purge event: %w", err)
	}
	return nil
}

func (s *eventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// SetEventImage swaps the event's image reference, removing the previous
// file once the new path is persisted.
func (s *eventService) SetEventImage(ctx context.Context, eventID, ownerID, imagePath string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	updated, err := s.eventRepo.Update(ctx, eventID, domain.EventUpdate{ImagePath: &imagePath})
	if err != nil {
		return nil, fmt.Errorf("update event image: %w", err)
	}
	if event.ImagePath != "" && event.ImagePath != imagePath && s.fileStore != nil {
		_ = s.fileStore.Delete(event.ImagePath)
	}
	return updated, nil
}

func validateEventTimes(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return domain.ErrInvalidInput
	}
	return nil
}
