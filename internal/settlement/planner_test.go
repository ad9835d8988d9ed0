package settlement_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/balance"
	"github.com/fkhayef/billsplit/internal/settlement"
)

func TestComputePlan(t *testing.T) {
	tests := []struct {
		name     string
		balances balance.Balances
		want     []settlement.Transfer
	}{
		{
			name:     "one creditor two tied debtors",
			balances: balance.Balances{"A": 2000, "B": -1000, "C": -1000},
			want: []settlement.Transfer{
				{FromID: "B", ToID: "A", Amount: 1000},
				{FromID: "C", ToID: "A", Amount: 1000},
			},
		},
		{
			name:     "largest pair first",
			balances: balance.Balances{"A": 500, "B": 1500, "C": -1200, "D": -800},
			want: []settlement.Transfer{
				{FromID: "C", ToID: "B", Amount: 1200},
				{FromID: "D", ToID: "A", Amount: 500},
				{FromID: "D", ToID: "B", Amount: 300},
			},
		},
		{
			name:     "tied creditors by ascending id",
			balances: balance.Balances{"Z": 100, "Y": 100, "X": -200},
			want: []settlement.Transfer{
				{FromID: "X", ToID: "Y", Amount: 100},
				{FromID: "X", ToID: "Z", Amount: 100},
			},
		},
		{
			name:     "all settled",
			balances: balance.Balances{"A": 0, "B": 0},
			want:     []settlement.Transfer{},
		},
		{
			name:     "empty",
			balances: balance.Balances{},
			want:     []settlement.Transfer{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := settlement.ComputePlan(tt.balances)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputePlan_RejectsUnbalancedInput(t *testing.T) {
	_, err := settlement.ComputePlan(balance.Balances{"A": 100, "B": -99})
	assert.ErrorIs(t, err, apperrors.ErrInvariant)
}

func TestComputePlan_DoesNotMutateInput(t *testing.T) {
	in := balance.Balances{"A": 700, "B": -300, "C": -400}
	_, err := settlement.ComputePlan(in)
	require.NoError(t, err)
	assert.Equal(t, balance.Balances{"A": 700, "B": -300, "C": -400}, in)
}

func TestComputePlan_Deterministic(t *testing.T) {
	in := balance.Balances{"A": 300, "B": 300, "C": -200, "D": -200, "E": -200}
	first, err := settlement.ComputePlan(in)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := settlement.ComputePlan(in)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestComputePlan_ClearsRandomBalances(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(12)
		balances := make(balance.Balances, n)
		var sum int64
		for j := 0; j < n-1; j++ {
			v := rng.Int63n(200_001) - 100_000
			balances[fmt.Sprintf("u%02d", j)] = v
			sum += v
		}
		balances[fmt.Sprintf("u%02d", n-1)] = -sum

		nonZero := 0
		for _, v := range balances {
			if v != 0 {
				nonZero++
			}
		}

		transfers, err := settlement.ComputePlan(balances)
		require.NoError(t, err, "case %d", i)
		if nonZero > 0 {
			require.LessOrEqual(t, len(transfers), nonZero-1, "case %d", i)
		}

		residue := make(balance.Balances, n)
		for id, v := range balances {
			residue[id] = v
		}
		for _, tr := range transfers {
			require.Positive(t, tr.Amount)
			require.Less(t, balances[tr.FromID], int64(0), "payer must be a debtor")
			require.Greater(t, balances[tr.ToID], int64(0), "payee must be a creditor")
			residue[tr.FromID] += tr.Amount
			residue[tr.ToID] -= tr.Amount
		}
		for id, v := range residue {
			require.Zero(t, v, "case %d: %s left with %d", i, id, v)
		}
	}
}
