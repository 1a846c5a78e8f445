package domain

import "errors"

// Sentinel errors for participation and event operations. The delivery layer
// maps each of these to a named API failure; services wrap everything else.
var (
	ErrNotFound              = errors.New("not found")
	ErrAlreadyParticipant    = errors.New("user already has a participation for this event")
	ErrNotAuthorized         = errors.New("caller lacks the required role or status")
	ErrEventFull             = errors.New("event has no remaining slots")
	ErrOrganizersCannotLeave = errors.New("organizers cannot leave their own event")
	ErrCannotRemoveOrganizer = errors.New("organizer participation cannot be removed")
	ErrInvalidTransition     = errors.New("participation is not in the required status")
	ErrNotEligible           = errors.New("user age is outside the event's age bounds")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidInput          = errors.New("invalid input")
)
