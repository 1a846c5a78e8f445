package domain

import (
	"context"
	"time"
)

// Participant roles.
const (
	RoleOrganizer = "organizer"
	RolePlayer    = "player"
)

// Participant statuses. A participation moves pending -> accepted|rejected,
// or invited -> pending on invitation acceptance; invited rows are deleted
// when the invitation is declined.
const (
	StatusInvited  = "invited"
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Participant represents a user's relationship to one event. At most one
// row exists per (event, user) pair at any time.
// swagger:model Participant
type Participant struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewParticipant returns a new Participant with the given fields. ID is typically set by the repository on create.
func NewParticipant(eventID, userID, role, status, note string, joinedAt time.Time) *Participant {
	return &Participant{
		EventID:   eventID,
		UserID:    userID,
		Role:      role,
		Status:    status,
		Note:      note,
		JoinedAt:  joinedAt,
		CreatedAt: joinedAt,
		UpdatedAt: joinedAt,
	}
}

// ParticipantRepository defines storage operations for participations.
type ParticipantRepository interface {
	// Create inserts the row and returns ErrAlreadyParticipant when a row
	// for the same (event, user) pair already exists.
	Create(ctx context.Context, p *Participant) error
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Participant, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Participant, error)
	ListByUserID(ctx context.Context, userID string) ([]*Participant, error)
	// CountAcceptedPlayers returns the number of accepted player rows for the
	// event. Organizer rows do not consume capacity slots.
	CountAcceptedPlayers(ctx context.Context, eventID string) (int, error)
	UpdateStatus(ctx context.Context, participantID, status string) (*Participant, error)
	// Approve flips a pending row to accepted only while the event's accepted
	// count is below capacity. The capacity check and the status write happen
	// atomically under a lock on the event row, so two approvals cannot both
	// claim the last slot. Returns ErrEventFull or ErrInvalidTransition.
	Approve(ctx context.Context, eventID, participantID string) (*Participant, error)
	Delete(ctx context.Context, participantID string) error
	DeleteByEventIDAndStatuses(ctx context.Context, eventID string, statuses []string) (int64, error)
}

// ParticipationService applies the event participation state machine.
// Operation preconditions and named failures follow the API contract: every
// mutating operation is a single-row read plus one conditional write, and an
// illegal transition never partially mutates state.
type ParticipationService interface {
	Join(ctx context.Context, eventID, userID, note string) (*Participant, error)
	Invite(ctx context.Context, eventID, inviterID, inviteeID string) (*Participant, error)
	AcceptInvitation(ctx context.Context, eventID, userID string) (*Participant, error)
	RejectInvitation(ctx context.Context, eventID, userID string) error
	Approve(ctx context.Context, eventID, approverID, targetUserID string) (*Participant, error)
	Reject(ctx context.Context, eventID, approverID, targetUserID string) (*Participant, error)
	Leave(ctx context.Context, eventID, userID string) error
	CancelPendingRequest(ctx context.Context, eventID, userID string) error
	RemoveParticipant(ctx context.Context, eventID, removerID, targetUserID string) error
	ListEventParticipants(ctx context.Context, eventID string) ([]*Participant, error)
	ListMyParticipations(ctx context.Context, userID string) ([]*Participant, error)

	// CleanupUnresolved discards every pending and invited row of an event,
	// archiving it. Fired by the lifecycle scheduler at the event's end time.
	CleanupUnresolved(ctx context.Context, eventID string) error
	// PurgeEvent removes the event's image file, all remaining participant
	// rows, and the event row itself. A missing event is a no-op. Fired by
	// the lifecycle scheduler once the retention window elapses.
	PurgeEvent(ctx context.Context, eventID string) error
}
