package balance

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/pkg/middleware"
)

// LedgerLoader reads ledger snapshots
type LedgerLoader interface {
	LoadLedger(ctx context.Context, eventID string) (*expense.Ledger, error)
}

// EventLister reads the events a user participates in
type EventLister interface {
	ListEventsForUser(ctx context.Context, userID string) ([]*event.Event, error)
}

// Service derives balances on demand
type Service struct {
	ledgers     LedgerLoader
	events      EventLister
	concurrency int
}

// NewService creates a balance service. concurrency bounds how many ledgers
// are loaded at once when aggregating across events.
func NewService(ledgers LedgerLoader, events EventLister, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{ledgers: ledgers, events: events, concurrency: concurrency}
}

// EventBalances computes the balances of one event from its current ledger
func (s *Service) EventBalances(ctx context.Context, eventID string) (Balances, error) {
	ledger, err := s.ledgers.LoadLedger(ctx, eventID)
	if err != nil {
		return nil, err
	}

	balances, err := Compute(ledger)
	if err != nil {
		logInvariant(ctx, err, eventID)
		return nil, err
	}
	return balances, nil
}

// IsSettled reports whether every balance of an event is zero
func (s *Service) IsSettled(ctx context.Context, eventID string) (bool, error) {
	balances, err := s.EventBalances(ctx, eventID)
	if err != nil {
		return false, err
	}
	return balances.IsSettled(), nil
}

// UserTotal sums a user's balance across every event they participate in.
// Ledgers are loaded concurrently; the first failure cancels the rest.
func (s *Service) UserTotal(ctx context.Context, userID string) (*UserTotal, error) {
	events, err := s.events.ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshots := make([]EventLedger, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, e := range events {
		i, e := i, e
		g.Go(func() error {
			ledger, err := s.ledgers.LoadLedger(gctx, e.ID)
			if err != nil {
				return err
			}
			snapshots[i] = EventLedger{Event: e, Ledger: ledger}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total, err := TotalBalance(userID, snapshots)
	if err != nil {
		logInvariant(ctx, err, "")
		return nil, err
	}
	return total, nil
}

func logInvariant(ctx context.Context, err error, eventID string) {
	if !errors.Is(err, apperrors.ErrInvariant) {
		return
	}
	logger := middleware.LoggerFrom(ctx)
	if eventID != "" {
		logger = logger.With(slog.String("event_id", eventID))
	}
	logger.Error("Balance invariant violated", slog.String("error", err.Error()))
}
