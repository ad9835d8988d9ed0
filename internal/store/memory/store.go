// Package memory keeps events and ledgers in process memory. It backs local
// development and tests with the same contracts as the Postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/internal/expense/split"
)

type eventRecord struct {
	event        event.Event
	participants map[string]event.Participant
	expenses     []*expense.Expense
	payments     []*expense.Payment
	// writeLock serializes ledger appends; a buffered channel allows a bounded wait
	writeLock chan struct{}
}

// Store is an in-memory event and ledger store
type Store struct {
	mu          sync.RWMutex
	events      map[string]*eventRecord
	seq         int64 // last append sequence, guarded by mu
	lockTimeout time.Duration
}

// NewStore creates an empty store. Appends wait at most lockTimeout for an
// event's write lock.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		events:      make(map[string]*eventRecord),
		lockTimeout: lockTimeout,
	}
}

var (
	_ event.Store   = (*Store)(nil)
	_ expense.Store = (*Store)(nil)
)

// CreateEvent stores the event with its creator as the first participant
func (s *Store) CreateEvent(_ context.Context, e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[e.ID]; exists {
		return apperrors.Conflict("event %s already exists", e.ID)
	}
	s.events[e.ID] = &eventRecord{
		event: *e,
		participants: map[string]event.Participant{
			e.CreatorID: {EventID: e.ID, UserID: e.CreatorID, JoinedAt: e.CreatedAt},
		},
		writeLock: make(chan struct{}, 1),
	}
	return nil
}

// GetEvent retrieves an event by its ID
func (s *Store) GetEvent(_ context.Context, id string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.events[id]
	if !ok {
		return nil, apperrors.NotFound("event %s", id)
	}
	e := rec.event
	return &e, nil
}

// ListEventsForUser returns the user's events, most recent first
func (s *Store) ListEventsForUser(_ context.Context, userID string) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*event.Event
	for _, rec := range s.events {
		if _, ok := rec.participants[userID]; ok {
			e := rec.event
			events = append(events, &e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// TransitionStatus runs guard and then sets the status while holding the
// event's write lock, so no append lands between the two.
func (s *Store) TransitionStatus(ctx context.Context, id string, to event.Status, guard event.TransitionGuard) (*event.Event, error) {
	release, err := s.LockEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	// guard may read the ledger, so mu is not held here
	if err := guard(ctx, current); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.events[id]
	rec.event.Status = to
	e := rec.event
	return &e, nil
}

// AddParticipant adds a membership, rejecting duplicates
func (s *Store) AddParticipant(_ context.Context, p *event.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.events[p.EventID]
	if !ok {
		return apperrors.NotFound("event %s", p.EventID)
	}
	if _, dup := rec.participants[p.UserID]; dup {
		return apperrors.Conflict("user %s already participates in event %s", p.UserID, p.EventID)
	}
	rec.participants[p.UserID] = *p
	return nil
}

// ListParticipants returns the members of an event ordered by user id
func (s *Store) ListParticipants(_ context.Context, eventID string) ([]*event.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.NotFound("event %s", eventID)
	}
	participants := make([]*event.Participant, 0, len(rec.participants))
	for _, p := range rec.participants {
		p := p
		participants = append(participants, &p)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].UserID < participants[j].UserID })
	return participants, nil
}

// AppendExpense appends an expense under the event's write lock
func (s *Store) AppendExpense(ctx context.Context, e *expense.Expense) error {
	stored := *e
	stored.Allocations = append([]split.Allocation(nil), e.Allocations...)
	return s.withEventLock(ctx, e.EventID, func(rec *eventRecord) {
		stored.Seq = s.nextSeq()
		e.Seq = stored.Seq
		rec.expenses = append(rec.expenses, &stored)
	})
}

// AppendPayment appends a payment under the event's write lock
func (s *Store) AppendPayment(ctx context.Context, p *expense.Payment) error {
	stored := *p
	return s.withEventLock(ctx, p.EventID, func(rec *eventRecord) {
		stored.Seq = s.nextSeq()
		p.Seq = stored.Seq
		rec.payments = append(rec.payments, &stored)
	})
}

// LoadLedger returns a copy of an event's ledger
func (s *Store) LoadLedger(_ context.Context, eventID string) (*expense.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.NotFound("event %s", eventID)
	}

	ledger := &expense.Ledger{
		EventID:      eventID,
		Participants: make([]string, 0, len(rec.participants)),
		Expenses:     make([]*expense.Expense, len(rec.expenses)),
		Payments:     make([]*expense.Payment, len(rec.payments)),
	}
	for id := range rec.participants {
		ledger.Participants = append(ledger.Participants, id)
	}
	sort.Strings(ledger.Participants)
	// Records are immutable once appended, so sharing pointers is safe
	copy(ledger.Expenses, rec.expenses)
	copy(ledger.Payments, rec.payments)
	return ledger, nil
}

// nextSeq must be called with mu held
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// withEventLock acquires the event's write lock within the configured bound,
// re-checks that the event is active, and applies fn with mu held.
func (s *Store) withEventLock(ctx context.Context, eventID string, fn func(rec *eventRecord)) error {
	release, err := s.LockEvent(ctx, eventID)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.events[eventID]
	if rec.event.Status != event.StatusActive {
		return apperrors.Validation("event %s is %s and accepts no new records", eventID, rec.event.Status)
	}
	fn(rec)
	return nil
}

// LockEvent holds an event's write lock until release is called. It waits at
// most the store's lock timeout and then fails with apperrors.ErrConflict.
func (s *Store) LockEvent(ctx context.Context, eventID string) (release func(), err error) {
	s.mu.RLock()
	rec, ok := s.events[eventID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("event %s", eventID)
	}

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case rec.writeLock <- struct{}{}:
		return func() { <-rec.writeLock }, nil
	case <-timer.C:
		return nil, apperrors.Conflict("event %s is being modified, retry", eventID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
