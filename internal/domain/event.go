package domain

import (
	"context"
	"time"
)

// Event represents a scheduled sporting activity at a location.
// swagger:model Event
type Event struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	SportID    string    `json:"sport_id"`
	OwnerID    string    `json:"owner_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Level      string    `json:"level"`
	MinAge     int       `json:"min_age"`
	MaxAge     int       `json:"max_age"`
	Capacity   int       `json:"capacity"`
	ImagePath  string    `json:"image_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(locationID, sportID, ownerID, level string, startTime, endTime time.Time, minAge, maxAge, capacity int, createdAt, updatedAt time.Time) *Event {
	return &Event{
		LocationID: locationID,
		SportID:    sportID,
		OwnerID:    ownerID,
		Level:      level,
		StartTime:  startTime,
		EndTime:    endTime,
		MinAge:     minAge,
		MaxAge:     maxAge,
		Capacity:   capacity,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// EventUpdate carries the mutable event fields for a partial update.
// Nil fields are left unchanged.
type EventUpdate struct {
	LocationID *string
	SportID    *string
	StartTime  *time.Time
	EndTime    *time.Time
	Level      *string
	MinAge     *int
	MaxAge     *int
	Capacity   *int
	ImagePath  *string
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	// ListAll returns every stored event. Used once at startup to re-derive
	// lifecycle timers; events past their retention window have already been
	// purged, so the result set stays bounded.
	ListAll(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
	// DeleteCascade removes the event's participant rows and the event row
	// in a single transaction.
	DeleteCascade(ctx context.Context, eventID string) error
}

// EventService defines owner-facing event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, []*Participant, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, upd EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, ownerID string) error
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	SetEventImage(ctx context.Context, eventID, ownerID, imagePath string) (*Event, error)
}

// EligibilityChecker validates that a user may be attached to an event at
// join/invitation time. The participation state machine consults it but does
// not re-validate eligibility on later transitions.
type EligibilityChecker interface {
	CheckAge(ctx context.Context, event *Event, userID string) error
}
