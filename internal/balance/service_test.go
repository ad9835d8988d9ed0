package balance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/balance"
	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/internal/expense/split"
	"github.com/fkhayef/billsplit/internal/store/memory"
)

// --- Mock LedgerLoader ---
type MockLedgerLoader struct {
	mock.Mock
}

func (m *MockLedgerLoader) LoadLedger(ctx context.Context, eventID string) (*expense.Ledger, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Ledger), args.Error(1)
}

func seedEvent(t *testing.T, store *memory.Store, id, creator string, createdAt time.Time, others ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateEvent(ctx, &event.Event{
		ID: id, Name: id, Category: event.CategoryOther, CreatorID: creator, Status: event.StatusActive, CreatedAt: createdAt,
	}))
	for _, u := range others {
		require.NoError(t, store.AddParticipant(ctx, &event.Participant{EventID: id, UserID: u, JoinedAt: createdAt}))
	}
}

func TestService_EventBalancesAndSettled(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(time.Second)
	seedEvent(t, store, "trip", "A", base, "B", "C")
	svc := balance.NewService(store, store, 2)

	settled, err := svc.IsSettled(ctx, "trip")
	require.NoError(t, err)
	assert.True(t, settled)

	require.NoError(t, store.AppendExpense(ctx, equalExpense(t, "e1", "A", 3000, base, "A", "B", "C")))

	balances, err := svc.EventBalances(ctx, "trip")
	require.NoError(t, err)
	assert.Equal(t, balance.Balances{"A": 2000, "B": -1000, "C": -1000}, balances)

	settled, err = svc.IsSettled(ctx, "trip")
	require.NoError(t, err)
	assert.False(t, settled)
}

func TestService_EventBalancesUnknownEvent(t *testing.T) {
	store := memory.NewStore(time.Second)
	svc := balance.NewService(store, store, 2)

	_, err := svc.EventBalances(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestService_EventBalancesReportsInvariant(t *testing.T) {
	ctx := context.Background()
	loader := new(MockLedgerLoader)
	loader.On("LoadLedger", ctx, "evt").Return(&expense.Ledger{
		EventID:      "evt",
		Participants: []string{"A"},
		Expenses: []*expense.Expense{{
			ID: "broken", TotalAmount: 10, PayerID: "A",
			Allocations: []split.Allocation{{UserID: "A", Amount: 9}},
		}},
	}, nil).Once()

	svc := balance.NewService(loader, memory.NewStore(time.Second), 1)
	_, err := svc.EventBalances(ctx, "evt")
	assert.ErrorIs(t, err, apperrors.ErrInvariant)
	loader.AssertExpectations(t)
}

func TestService_UserTotal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(time.Second)
	seedEvent(t, store, "y", "friend", base, "me")
	seedEvent(t, store, "x", "me", base.Add(time.Hour), "friend")
	seedEvent(t, store, "z", "me", base.Add(2*time.Hour))

	require.NoError(t, store.AppendExpense(ctx, &expense.Expense{
		ID: "ex", EventID: "x", TotalAmount: 500, PayerID: "me", SplitType: split.SplitTypeCustom,
		Allocations: []split.Allocation{{UserID: "friend", Amount: 500}}, CreatedAt: base,
	}))
	require.NoError(t, store.AppendExpense(ctx, &expense.Expense{
		ID: "ey", EventID: "y", TotalAmount: 200, PayerID: "friend", SplitType: split.SplitTypeCustom,
		Allocations: []split.Allocation{{UserID: "me", Amount: 200}}, CreatedAt: base,
	}))

	svc := balance.NewService(store, store, 2)
	total, err := svc.UserTotal(ctx, "me")
	require.NoError(t, err)

	assert.Equal(t, int64(300), total.Total)
	require.Len(t, total.PerEvent, 3)
	assert.Equal(t, []string{"z", "x", "y"}, []string{total.PerEvent[0].EventID, total.PerEvent[1].EventID, total.PerEvent[2].EventID})
	assert.Equal(t, []int64{0, 500, -200}, []int64{total.PerEvent[0].Balance, total.PerEvent[1].Balance, total.PerEvent[2].Balance})
}

func TestService_UserTotalPropagatesLoadError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(time.Second)
	seedEvent(t, store, "x", "me", base)

	boom := errors.New("connection reset")
	loader := new(MockLedgerLoader)
	loader.On("LoadLedger", mock.Anything, "x").Return(nil, boom).Once()

	svc := balance.NewService(loader, store, 4)
	_, err := svc.UserTotal(ctx, "me")
	assert.ErrorIs(t, err, boom)
	loader.AssertExpectations(t)
}
