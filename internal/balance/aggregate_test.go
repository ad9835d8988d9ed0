package balance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/billsplit/internal/balance"
	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/internal/expense/split"
)

func customExpense(payer string, allocations ...split.Allocation) *expense.Expense {
	return &expense.Expense{
		ID:          "e-" + payer,
		TotalAmount: split.Sum(allocations),
		PayerID:     payer,
		SplitType:   split.SplitTypeCustom,
		Allocations: allocations,
		CreatedAt:   base,
	}
}

func TestTotalBalance_SumsAcrossEventsByRecency(t *testing.T) {
	older := &event.Event{ID: "evt-y", Name: "Y", CreatedAt: base}
	newer := &event.Event{ID: "evt-x", Name: "X", CreatedAt: base.Add(24 * time.Hour)}

	// me is owed 500 in X
	ledgerX := &expense.Ledger{
		EventID:      "evt-x",
		Participants: []string{"friend", "me"},
		Expenses:     []*expense.Expense{customExpense("me", split.Allocation{UserID: "friend", Amount: 500})},
	}
	// me owes 200 in Y
	ledgerY := &expense.Ledger{
		EventID:      "evt-y",
		Participants: []string{"friend", "me"},
		Expenses:     []*expense.Expense{customExpense("friend", split.Allocation{UserID: "me", Amount: 200})},
	}

	total, err := balance.TotalBalance("me", []balance.EventLedger{
		{Event: older, Ledger: ledgerY},
		{Event: newer, Ledger: ledgerX},
	})
	require.NoError(t, err)

	assert.Equal(t, "me", total.UserID)
	assert.Equal(t, int64(300), total.Total)
	require.Len(t, total.PerEvent, 2)
	assert.Equal(t, "evt-x", total.PerEvent[0].EventID)
	assert.Equal(t, "X", total.PerEvent[0].EventName)
	assert.Equal(t, int64(500), total.PerEvent[0].Balance)
	assert.Equal(t, "evt-y", total.PerEvent[1].EventID)
	assert.Equal(t, int64(-200), total.PerEvent[1].Balance)
}

func TestTotalBalance_KeepsSettledEventsAndBreaksTiesByID(t *testing.T) {
	b := &event.Event{ID: "b", Name: "B", CreatedAt: base}
	a := &event.Event{ID: "a", Name: "A", CreatedAt: base}

	empty := func(id string) *expense.Ledger {
		return &expense.Ledger{EventID: id, Participants: []string{"me"}}
	}

	total, err := balance.TotalBalance("me", []balance.EventLedger{
		{Event: b, Ledger: empty("b")},
		{Event: a, Ledger: empty("a")},
	})
	require.NoError(t, err)

	assert.Zero(t, total.Total)
	require.Len(t, total.PerEvent, 2)
	assert.Equal(t, "a", total.PerEvent[0].EventID)
	assert.Equal(t, "b", total.PerEvent[1].EventID)
}

func TestTotalBalance_NoEvents(t *testing.T) {
	total, err := balance.TotalBalance("me", nil)
	require.NoError(t, err)
	assert.Zero(t, total.Total)
	assert.NotNil(t, total.PerEvent)
	assert.Empty(t, total.PerEvent)
}
