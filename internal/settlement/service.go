package settlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/balance"
	"github.com/fkhayef/billsplit/pkg/middleware"
)

// BalanceSource derives the current balances of an event
type BalanceSource interface {
	EventBalances(ctx context.Context, eventID string) (balance.Balances, error)
}

// Service plans settlements from freshly derived balances
type Service struct {
	balances BalanceSource
}

// NewService creates a new settlement service
func NewService(balances BalanceSource) *Service {
	return &Service{balances: balances}
}

// PlanForEvent derives the event's balances and the transfers that clear them
func (s *Service) PlanForEvent(ctx context.Context, eventID string) (*Plan, error) {
	balances, err := s.balances.EventBalances(ctx, eventID)
	if err != nil {
		return nil, err
	}

	transfers, err := ComputePlan(balances)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvariant) {
			middleware.LoggerFrom(ctx).Error("Settlement invariant violated",
				slog.String("event_id", eventID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	return &Plan{
		EventID:   eventID,
		Balances:  balances.Sorted(),
		Transfers: transfers,
	}, nil
}
