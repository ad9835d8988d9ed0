package event

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/pkg/middleware"
)

// SettlementChecker reports whether every derived balance of an event is zero.
type SettlementChecker interface {
	IsSettled(ctx context.Context, eventID string) (bool, error)
}

// Service handles event business logic
type Service struct {
	store   Store
	checker SettlementChecker
	now     func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for created/joined timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new event service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSettlementChecker wires the balance lookup used by Complete. It is set after
// construction because the balance service itself reads events.
func (s *Service) SetSettlementChecker(checker SettlementChecker) {
	s.checker = checker
}

// Create creates a new event with the creator as its first participant
func (s *Service) Create(ctx context.Context, creatorID string, req *CreateEventRequest) (*Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("event name is required")
	}

	e := &Event{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		Category:    req.Category,
		CreatorID:   creatorID,
		Status:      StatusActive,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	middleware.LoggerFrom(ctx).Info("Event created", slog.String("event_id", e.ID), slog.String("category", string(e.Category)))
	return e, nil
}

// GetByID retrieves an event by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Event, error) {
	return s.store.GetEvent(ctx, id)
}

// GetByIDWithParticipants retrieves an event with all its participants
func (s *Service) GetByIDWithParticipants(ctx context.Context, id string) (*Event, []*Participant, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	participants, err := s.store.ListParticipants(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return e, participants, nil
}

// ListForUser retrieves the events a user participates in, most recent first
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Event, error) {
	return s.store.ListEventsForUser(ctx, userID)
}

// AddParticipant adds a user to an active event
func (s *Service) AddParticipant(ctx context.Context, eventID string, req *AddParticipantRequest) (*Participant, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.IsActive() {
		return nil, apperrors.Validation("event %s is %s", eventID, e.Status)
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, apperrors.Validation("user_id is required")
	}

	p := &Participant{EventID: eventID, UserID: userID, JoinedAt: s.now()}
	if err := s.store.AddParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParticipants retrieves the participants of an existing event
func (s *Service) ListParticipants(ctx context.Context, eventID string) ([]*Participant, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, eventID)
}

// Complete marks an event completed. Only events whose derived balances are all
// zero can be completed. The balance check and the status change happen under
// the event's write lock.
func (s *Service) Complete(ctx context.Context, eventID string) (*Event, error) {
	e, err := s.store.TransitionStatus(ctx, eventID, StatusCompleted, func(ctx context.Context, current *Event) error {
		if !current.IsActive() {
			return apperrors.Validation("event %s is already %s", eventID, current.Status)
		}
		settled, err := s.checker.IsSettled(ctx, eventID)
		if err != nil {
			return err
		}
		if !settled {
			return apperrors.Validation("event %s still has outstanding balances", eventID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.LoggerFrom(ctx).Info("Event completed", slog.String("event_id", eventID))
	return e, nil
}

// Cancel closes an active event without requiring it to be settled. The
// ledger stays readable but accepts no further records.
func (s *Service) Cancel(ctx context.Context, eventID string) (*Event, error) {
	e, err := s.store.TransitionStatus(ctx, eventID, StatusCancelled, func(_ context.Context, current *Event) error {
		if !current.IsActive() {
			return apperrors.Validation("event %s is already %s", eventID, current.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.LoggerFrom(ctx).Info("Event cancelled", slog.String("event_id", eventID))
	return e, nil
}
