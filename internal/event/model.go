package event

import (
	"context"
	"time"
)

// Status represents the lifecycle state of an event
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Category tags what the event is about
type Category string

const (
	CategoryRestaurant    Category = "restaurant"
	CategoryTravel        Category = "travel"
	CategorySharedHouse   Category = "shared_house"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryOther         Category = "other"
)

// Event groups participants and the ledger they share
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    Category  `json:"category"`
	CreatorID   string    `json:"creator_id"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsActive reports whether the event still accepts ledger writes
func (e *Event) IsActive() bool {
	return e.Status == StatusActive
}

// Participant is a user's membership in an event. It carries no balance.
type Participant struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// TransitionGuard vets a status change against the event as it is under the
// write lock
type TransitionGuard func(ctx context.Context, current *Event) error

// Store is the persistence contract for events and their participants.
// Lookups of unknown events return an error wrapping apperrors.ErrNotFound.
type Store interface {
	// CreateEvent stores the event and its creator as the first participant atomically.
	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	// ListEventsForUser returns events the user participates in, most recent first.
	ListEventsForUser(ctx context.Context, userID string) ([]*Event, error)
	// TransitionStatus runs guard and sets the status to `to` while holding the
	// event's write lock, so no ledger append can land between the two. A
	// guard error aborts the transition and is returned as is.
	TransitionStatus(ctx context.Context, id string, to Status, guard TransitionGuard) (*Event, error)
	// AddParticipant fails with apperrors.ErrConflict when the user already participates.
	AddParticipant(ctx context.Context, p *Participant) error
	ListParticipants(ctx context.Context, eventID string) ([]*Participant, error)
}
