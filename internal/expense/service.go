package expense

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense/split"
	"github.com/fkhayef/billsplit/pkg/middleware"
	"github.com/fkhayef/billsplit/pkg/request"
)

// EventReader is the slice of the event store the ledger validates against
type EventReader interface {
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListParticipants(ctx context.Context, eventID string) ([]*event.Participant, error)
}

// Service handles ledger business logic
type Service struct {
	store        Store
	events       EventReader
	splitFactory *split.Factory // Factory pattern for creating split strategies
	now          func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for record timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new ledger service with dependencies injected
func NewService(store Store, events EventReader, splitFactory *split.Factory, opts ...Option) *Service {
	s := &Service{
		store:        store,
		events:       events,
		splitFactory: splitFactory,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordExpense validates an expense against the event, resolves its split and
// appends it to the ledger.
func (s *Service) RecordExpense(ctx context.Context, eventID, callerID string, req *CreateExpenseRequest) (*Expense, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}

	members, err := s.activeMembers(ctx, eventID)
	if err != nil {
		return nil, err
	}

	payerID := strings.TrimSpace(req.PayerID)
	if payerID == "" {
		payerID = callerID
	}
	if _, ok := members[payerID]; !ok {
		return nil, apperrors.Validation("payer %s is not a participant of event %s", payerID, eventID)
	}

	// Use FACTORY PATTERN to get the appropriate split strategy
	strategy, err := s.splitFactory.CreateFromString(req.SplitType)
	if err != nil {
		return nil, err
	}

	inputs, err := splitInputs(strategy.Type(), req, members)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if _, ok := members[in.UserID]; !ok {
			return nil, apperrors.Validation("user %s is not a participant of event %s", in.UserID, eventID)
		}
	}

	// Use STRATEGY PATTERN - allocate cents using the selected strategy
	allocations, err := strategy.Allocate(req.Amount, inputs)
	if err != nil {
		return nil, err
	}

	e := &Expense{
		ID:          uuid.NewString(),
		EventID:     eventID,
		Description: strings.TrimSpace(req.Description),
		TotalAmount: req.Amount,
		PayerID:     payerID,
		SplitType:   strategy.Type(),
		Allocations: allocations,
		CreatedBy:   callerID,
		CreatedAt:   s.now(),
	}
	if err := s.store.AppendExpense(ctx, e); err != nil {
		return nil, err
	}

	middleware.LoggerFrom(ctx).Info("Expense recorded",
		slog.String("event_id", eventID),
		slog.String("expense_id", e.ID),
		slog.String("split_type", string(e.SplitType)),
		slog.Int64("amount", e.TotalAmount),
	)
	return e, nil
}

// RecordPayment appends a payment between two participants to the ledger
func (s *Service) RecordPayment(ctx context.Context, eventID, callerID string, req *RecordPaymentRequest) (*Payment, error) {
	if err := request.Validate(req); err != nil {
		return nil, err
	}

	members, err := s.activeMembers(ctx, eventID)
	if err != nil {
		return nil, err
	}

	fromID := strings.TrimSpace(req.FromID)
	if fromID == "" {
		fromID = callerID
	}
	toID := strings.TrimSpace(req.ToID)
	if fromID == toID {
		return nil, apperrors.Validation("a payment needs two different participants")
	}
	for _, id := range []string{fromID, toID} {
		if _, ok := members[id]; !ok {
			return nil, apperrors.Validation("user %s is not a participant of event %s", id, eventID)
		}
	}

	p := &Payment{
		ID:        uuid.NewString(),
		EventID:   eventID,
		FromID:    fromID,
		ToID:      toID,
		Amount:    req.Amount,
		Note:      req.Note,
		CreatedBy: callerID,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendPayment(ctx, p); err != nil {
		return nil, err
	}

	middleware.LoggerFrom(ctx).Info("Payment recorded",
		slog.String("event_id", eventID),
		slog.String("payment_id", p.ID),
		slog.Int64("amount", p.Amount),
	)
	return p, nil
}

// Ledger returns the full ledger snapshot of an event
func (s *Service) Ledger(ctx context.Context, eventID string) (*Ledger, error) {
	return s.store.LoadLedger(ctx, eventID)
}

// ListExpenses returns the expenses of an event in the order they were recorded
func (s *Service) ListExpenses(ctx context.Context, eventID string) ([]*Expense, error) {
	ledger, err := s.store.LoadLedger(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return ledger.Expenses, nil
}

// activeMembers loads an event, rejects writes to inactive events, and returns
// its participant set.
func (s *Service) activeMembers(ctx context.Context, eventID string) (map[string]struct{}, error) {
	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.IsActive() {
		return nil, apperrors.Validation("event %s is %s and accepts no new records", eventID, e.Status)
	}

	participants, err := s.events.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	members := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		members[p.UserID] = struct{}{}
	}
	return members, nil
}

// splitInputs builds the strategy inputs and enforces which request fields each
// split type accepts.
func splitInputs(splitType split.SplitType, req *CreateExpenseRequest, members map[string]struct{}) ([]split.Input, error) {
	switch splitType {
	case split.SplitTypeEqual:
		if len(req.Percentages) > 0 || len(req.Amounts) > 0 {
			return nil, apperrors.Validation("equal splits take only a participant list")
		}
		ids := req.Participants
		if len(ids) == 0 {
			ids = sortedKeys(members)
		}
		inputs := make([]split.Input, len(ids))
		for i, id := range ids {
			inputs[i] = split.Input{UserID: strings.TrimSpace(id)}
		}
		return inputs, nil

	case split.SplitTypePercentage:
		if len(req.Amounts) > 0 {
			return nil, apperrors.Validation("percentage splits do not take custom amounts")
		}
		if len(req.Percentages) == 0 {
			return nil, split.ErrMissingPercentage
		}
		ids := sortedKeys(req.Percentages)
		if err := sameParticipants(req.Participants, ids); err != nil {
			return nil, err
		}
		inputs := make([]split.Input, len(ids))
		for i, id := range ids {
			pct := req.Percentages[id]
			inputs[i] = split.Input{UserID: id, Percentage: &pct}
		}
		return inputs, nil

	case split.SplitTypeCustom:
		if len(req.Percentages) > 0 {
			return nil, apperrors.Validation("custom splits do not take percentages")
		}
		if len(req.Amounts) == 0 {
			return nil, split.ErrMissingCustomAmount
		}
		ids := sortedKeys(req.Amounts)
		if err := sameParticipants(req.Participants, ids); err != nil {
			return nil, err
		}
		inputs := make([]split.Input, len(ids))
		for i, id := range ids {
			amount := req.Amounts[id]
			inputs[i] = split.Input{UserID: id, Amount: &amount}
		}
		return inputs, nil
	}
	return nil, apperrors.Validation("unknown split type %q", splitType)
}

// sameParticipants checks an optional participant list against the keys of a
// split input map.
func sameParticipants(listed []string, keys []string) error {
	if len(listed) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	seen := make(map[string]struct{}, len(listed))
	for _, id := range listed {
		if _, ok := want[id]; !ok {
			return apperrors.Validation("participant %s has no split value", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != len(listed) {
		return split.ErrDuplicateParticipant
	}
	if len(seen) != len(want) {
		return apperrors.Validation("split values name users missing from the participant list")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
