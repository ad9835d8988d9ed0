package balance_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/balance"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/internal/expense/split"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func equalExpense(t *testing.T, id, payer string, total int64, at time.Time, consumers ...string) *expense.Expense {
	t.Helper()
	inputs := make([]split.Input, len(consumers))
	for i, c := range consumers {
		inputs[i] = split.Input{UserID: c}
	}
	allocations, err := (&split.EqualStrategy{}).Allocate(total, inputs)
	require.NoError(t, err)
	return &expense.Expense{
		ID:          id,
		EventID:     "evt",
		TotalAmount: total,
		PayerID:     payer,
		SplitType:   split.SplitTypeEqual,
		Allocations: allocations,
		CreatedAt:   at,
	}
}

func TestCompute_EqualSplitRounding(t *testing.T) {
	ledger := &expense.Ledger{
		EventID:      "evt",
		Participants: []string{"A", "B", "C"},
		Expenses:     []*expense.Expense{equalExpense(t, "e1", "A", 1000, base, "A", "B", "C")},
	}

	assert.Equal(t, []split.Allocation{{UserID: "A", Amount: 334}, {UserID: "B", Amount: 333}, {UserID: "C", Amount: 333}},
		ledger.Expenses[0].Allocations)

	balances, err := balance.Compute(ledger)
	require.NoError(t, err)
	assert.Equal(t, balance.Balances{"A": 666, "B": -333, "C": -333}, balances)
}

func TestCompute_PaymentsMoveBalancesTowardZero(t *testing.T) {
	ledger := &expense.Ledger{
		EventID:      "evt",
		Participants: []string{"A", "B", "C"},
		Expenses:     []*expense.Expense{equalExpense(t, "e1", "A", 3000, base, "A", "B", "C")},
		Payments: []*expense.Payment{
			{ID: "p1", FromID: "B", ToID: "A", Amount: 1000, CreatedAt: base.Add(time.Minute)},
		},
	}

	balances, err := balance.Compute(ledger)
	require.NoError(t, err)
	assert.Equal(t, balance.Balances{"A": 1000, "B": 0, "C": -1000}, balances)
	assert.False(t, balances.IsSettled())
}

func TestCompute_KnownParticipantsStartAtZero(t *testing.T) {
	ledger := &expense.Ledger{EventID: "evt", Participants: []string{"A", "B"}}

	balances, err := balance.Compute(ledger)
	require.NoError(t, err)
	assert.Equal(t, balance.Balances{"A": 0, "B": 0}, balances)
	assert.True(t, balances.IsSettled())
	assert.Equal(t, []balance.Entry{{UserID: "A"}, {UserID: "B"}}, balances.Sorted())
}

func TestCompute_PayerOutsideAllocations(t *testing.T) {
	ledger := &expense.Ledger{
		EventID:      "evt",
		Participants: []string{"A", "B", "C"},
		Expenses:     []*expense.Expense{equalExpense(t, "e1", "A", 1001, base, "B", "C")},
	}

	balances, err := balance.Compute(ledger)
	require.NoError(t, err)
	assert.Equal(t, balance.Balances{"A": 1001, "B": -501, "C": -500}, balances)
}

func TestCompute_DetectsCorruptExpense(t *testing.T) {
	ledger := &expense.Ledger{
		EventID:      "evt",
		Participants: []string{"A", "B"},
		Expenses: []*expense.Expense{{
			ID:          "bad",
			TotalAmount: 1000,
			PayerID:     "A",
			Allocations: []split.Allocation{{UserID: "A", Amount: 500}, {UserID: "B", Amount: 499}},
			CreatedAt:   base,
		}},
	}

	_, err := balance.Compute(ledger)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvariant)
	assert.Contains(t, err.Error(), "bad")
}

func TestCompute_DetectsNonPositivePayment(t *testing.T) {
	ledger := &expense.Ledger{
		EventID:      "evt",
		Participants: []string{"A", "B"},
		Payments:     []*expense.Payment{{ID: "p1", FromID: "A", ToID: "B", Amount: -5, CreatedAt: base}},
	}

	_, err := balance.Compute(ledger)
	assert.ErrorIs(t, err, apperrors.ErrInvariant)
}

func TestCompute_Idempotent(t *testing.T) {
	ledger := randomLedger(t, rand.New(rand.NewSource(7)), 40)

	first, err := balance.Compute(ledger)
	require.NoError(t, err)
	second, err := balance.Compute(ledger)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompute_SumsToZeroForEveryPrefix(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		full := randomLedger(t, rng, 1+rng.Intn(30))

		// Every prefix of the ledger is itself a valid ledger state
		for n := 0; n <= len(full.Expenses); n++ {
			prefix := &expense.Ledger{
				EventID:      full.EventID,
				Participants: full.Participants,
				Expenses:     full.Expenses[:n],
				Payments:     full.Payments,
			}
			balances, err := balance.Compute(prefix)
			require.NoError(t, err)
			require.Zero(t, balances.Sum(), "ledger %d prefix %d", i, n)
		}
	}
}

// randomLedger builds a ledger mixing every split type and payments
func randomLedger(t *testing.T, rng *rand.Rand, records int) *expense.Ledger {
	t.Helper()

	n := 2 + rng.Intn(6)
	participants := make([]string, n)
	for i := range participants {
		participants[i] = fmt.Sprintf("user-%02d", i)
	}

	ledger := &expense.Ledger{EventID: "evt", Participants: participants}
	factory := split.NewSplitStrategyFactory()
	at := base

	for r := 0; r < records; r++ {
		at = at.Add(time.Second)
		if rng.Intn(4) == 0 {
			from := participants[rng.Intn(n)]
			to := participants[(indexOf(participants, from)+1+rng.Intn(n-1))%n]
			ledger.Payments = append(ledger.Payments, &expense.Payment{
				ID: fmt.Sprintf("p%d", r), FromID: from, ToID: to, Amount: 1 + rng.Int63n(50_000), CreatedAt: at,
			})
			continue
		}

		total := 1 + rng.Int63n(expense.MaxAmount)
		consumers := participants[:1+rng.Intn(n)]
		var (
			splitType split.SplitType
			inputs    []split.Input
		)
		switch rng.Intn(2) {
		case 0:
			splitType = split.SplitTypeEqual
			for _, c := range consumers {
				inputs = append(inputs, split.Input{UserID: c})
			}
		default:
			splitType = split.SplitTypeCustom
			remaining := total
			for i, c := range consumers {
				amount := remaining
				if i < len(consumers)-1 {
					amount = rng.Int63n(remaining + 1)
				}
				remaining -= amount
				a := amount
				inputs = append(inputs, split.Input{UserID: c, Amount: &a})
			}
		}

		strategy, err := factory.Create(splitType)
		require.NoError(t, err)
		allocations, err := strategy.Allocate(total, inputs)
		require.NoError(t, err)

		ledger.Expenses = append(ledger.Expenses, &expense.Expense{
			ID:          fmt.Sprintf("e%d", r),
			EventID:     "evt",
			TotalAmount: total,
			PayerID:     participants[rng.Intn(n)],
			SplitType:   splitType,
			Allocations: allocations,
			CreatedAt:   at,
		})
	}
	return ledger
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
