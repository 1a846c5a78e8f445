package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sportmeet/internal/domain"
)

type participationService struct {
	eventRepo       domain.EventRepository
	participantRepo domain.ParticipantRepository
	eligibility     domain.EligibilityChecker
	fileStore       domain.FileStore
	logger          *slog.Logger
}

// NewParticipationService creates a ParticipationService with the given
// repositories and collaborators. eligibility may be nil to skip age checks.
func NewParticipationService(
	eventRepo domain.EventRepository,
	participantRepo domain.ParticipantRepository,
	eligibility domain.EligibilityChecker,
	fileStore domain.FileStore,
	logger *slog.Logger,
) domain.ParticipationService {
	return &participationService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		eligibility:     eligibility,
		fileStore:       fileStore,
		logger:          logger,
	}
}

// Join creates a pending request for the caller. Capacity is not checked
// here: requests queue freely and compete for slots at approval time.
func (s *participationService) Join(ctx context.Context, eventID, userID, note string) (*domain.Participant, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAge(ctx, event, userID); err != nil {
		return nil, err
	}
	if _, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, domain.ErrAlreadyParticipant
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get participation: %w", err)
	}
	p := domain.NewParticipant(eventID, userID, domain.RolePlayer, domain.StatusPending, note, time.Now())
	if err := s.participantRepo.Create(ctx, p); err != nil {
		// The unique constraint on (event_id, user_id) catches the race
		// where two join calls pass the read above concurrently.
		if errors.Is(err, domain.ErrAlreadyParticipant) {
			return nil, domain.ErrAlreadyParticipant
		}
		return nil, fmt.Errorf("create participation: %w", err)
	}
	return p, nil
}

// Invite creates an invited row for inviteeID. The inviter must hold an
// accepted row on the event.
func (s *participationService) Invite(ctx context.Context, eventID, inviterID, inviteeID string) (*domain.Participant, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	inviter, err := s.participantRepo.GetByEventAndUser(ctx, eventID, inviterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotAuthorized
		}
		return nil, fmt.Errorf("get inviter participation: %w", err)
	}
	if !domain.IsAccepted(inviter) {
		return nil, domain.ErrNotAuthorized
	}
	if err := s.checkAge(ctx, event, inviteeID); err != nil {
		return nil, err
	}
	if _, err := s.participantRepo.GetByEventAndUser(ctx, eventID, inviteeID); err == nil {
		return nil, domain.ErrAlreadyParticipant
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get invitee participation: %w", err)
	}
	p := domain.NewParticipant(eventID, inviteeID, domain.RolePlayer, domain.StatusInvited, "", time.Now())
	if err := s.participantRepo.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrAlreadyParticipant) {
			return nil, domain.ErrAlreadyParticipant
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return p, nil
}

// AcceptInvitation moves an invited row to pending: accepting an invitation
// is "I want to join", not "I am in" — the request still needs organizer
// approval. With no existing row it degrades to a plain join.
func (s *participationService) AcceptInvitation(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.Join(ctx, eventID, userID, "")
		}
		return nil, fmt.Errorf("get participation: %w", err)
	}
	if p.Status != domain.StatusInvited {
		return nil, domain.ErrInvalidTransition
	}
	updated, err := s.participantRepo.UpdateStatus(ctx, p.ID, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("update participation: %w", err)
	}
	return updated, nil
}

// RejectInvitation deletes the caller's invited row.
func (s *participationService) RejectInvitation(ctx context.Context, eventID, userID string) error {
	p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get participation: %w", err)
	}
	if p.Status != domain.StatusInvited {
		return domain.ErrNotFound
	}
	if err := s.participantRepo.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// Approve flips a pending request to accepted, holding the capacity
// invariant: the accepted count never exceeds the event's capacity even
// under concurrent approvals of the last slot.
func (s *participationService) Approve(ctx context.Context, eventID, approverID, targetUserID string) (*domain.Participant, error) {
	target, err := s.requireOrganizerAndTarget(ctx, eventID, approverID, targetUserID)
	if err != nil {
		return nil, err
	}
	if target.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	approved, err := s.participantRepo.Approve(ctx, eventID, target.ID)
	if err != nil {
		if errors.Is(err, domain.ErrEventFull) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("approve participation: %w", err)
	}
	return approved, nil
}

// Reject flips a pending request to rejected. The row is retained, which
// blocks the user from re-requesting until an organizer removes it.
func (s *participationService) Reject(ctx context.Context, eventID, approverID, targetUserID string) (*domain.Participant, error) {
	target, err := s.requireOrganizerAndTarget(ctx, eventID, approverID, targetUserID)
	if err != nil {
		return nil, err
	}
	if target.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	updated, err := s.participantRepo.UpdateStatus(ctx, target.ID, domain.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("reject participation: %w", err)
	}
	return updated, nil
}

// Leave deletes the caller's own player row. Organizers cannot leave their
// event; only event deletion removes an organizer row.
func (s *participationService) Leave(ctx context.Context, eventID, userID string) error {
	p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get participation: %w", err)
	}
	if domain.IsOrganizer(p) {
		return domain.ErrOrganizersCannotLeave
	}
	if err := s.participantRepo.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete participation: %w", err)
	}
	return nil
}

// CancelPendingRequest deletes the caller's own pending request.
func (s *participationService) CancelPendingRequest(ctx context.Context, eventID, userID string) error {
	p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get participation: %w", err)
	}
	if p.Status != domain.StatusPending {
		return domain.ErrInvalidTransition
	}
	if err := s.participantRepo.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete participation: %w", err)
	}
	return nil
}

// RemoveParticipant deletes a player row on the organizer's behalf.
func (s *participationService) RemoveParticipant(ctx context.Context, eventID, removerID, targetUserID string) error {
	target, err := s.requireOrganizerAndTarget(ctx, eventID, removerID, targetUserID)
	if err != nil {
		return err
	}
	if domain.IsOrganizer(target) {
		return domain.ErrCannotRemoveOrganizer
	}
	if err := s.participantRepo.Delete(ctx, target.ID); err != nil {
		return fmt.Errorf("delete participation: %w", err)
	}
	return nil
}

func (s *participationService) ListEventParticipants(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	if participants == nil {
		participants = []*domain.Participant{}
	}
	return participants, nil
}

func (s *participationService) ListMyParticipations(ctx context.Context, userID string) ([]*domain.Participant, error) {
	participants, err := s.participantRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	if participants == nil {
		participants = []*domain.Participant{}
	}
	return participants, nil
}

// CleanupUnresolved archives an ended event by discarding its unresolved
// rows. Accepted, rejected, and organizer rows are untouched.
func (s *participationService) CleanupUnresolved(ctx context.Context, eventID string) error {
	removed, err := s.participantRepo.DeleteByEventIDAndStatuses(ctx, eventID, []string{domain.StatusPending, domain.StatusInvited})
	if err != nil {
		return fmt.Errorf("delete unresolved participations: %w", err)
	}
	if removed > 0 {
		s.logger.Info("archived event", "event_id", eventID, "removed", removed)
	}
	return nil
}

// PurgeEvent removes an event and everything hanging off it: the image file,
// all participant rows, and the event row. Missing event is a no-op so a
// purge racing an owner-initiated delete stays harmless.
func (s *participationService) PurgeEvent(ctx context.Context, eventID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.ImagePath != "" && s.fileStore != nil {
		if err := s.fileStore.Delete(event.ImagePath); err != nil {
			// A stale image file is preferable to a stale event row.
			s.logger.Warn("delete event image failed", "event_id", eventID, "path", event.ImagePath, "err", err)
		}
	}
	if err := s.eventRepo.DeleteCascade(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info("purged event", "event_id", eventID)
	return nil
}

func (s *participationService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *participationService) checkAge(ctx context.Context, event *domain.Event, userID string) error {
	if s.eligibility == nil {
		return nil
	}
	return s.eligibility.CheckAge(ctx, event, userID)
}

// requireOrganizerAndTarget loads the caller's accepted organizer row and the
// target user's row, the shared precondition of approve/reject/remove.
func (s *participationService) requireOrganizerAndTarget(ctx context.Context, eventID, callerID, targetUserID string) (*domain.Participant, error) {
	caller, err := s.participantRepo.GetByEventAndUser(ctx, eventID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotAuthorized
		}
		return nil, fmt.Errorf("get caller participation: %w", err)
	}
	if !domain.IsAcceptedOrganizer(caller) {
		return nil, domain.ErrNotAuthorized
	}
	target, err := s.participantRepo.GetByEventAndUser(ctx, eventID, targetUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get target participation: %w", err)
	}
	return target, nil
}
