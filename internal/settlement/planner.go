package settlement

import (
	"container/heap"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/balance"
)

// party is a creditor or debtor with the absolute amount still open
type party struct {
	id     string
	amount int64
}

// partyHeap pops the largest amount first, ties by ascending id
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }
func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].id < h[j].id
}
func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }
func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// ComputePlan nets balances into transfers using greedy largest-pair matching.
//
// Each step pairs the largest creditor with the largest debtor and moves the
// smaller of the two amounts, so at least one side is cleared per transfer and
// the plan has at most N-1 transfers for N non-zero balances. The result is
// deterministic but not guaranteed to be the global minimum.
//
// The plan is replayed against the input before it is returned. Any residue, or
// balances that do not net to zero, returns an error wrapping
// apperrors.ErrInvariant.
func ComputePlan(balances balance.Balances) ([]Transfer, error) {
	if sum := balances.Sum(); sum != 0 {
		return nil, apperrors.Invariant("balances net to %d, cannot settle", sum)
	}

	creditors := &partyHeap{}
	debtors := &partyHeap{}
	for id, amount := range balances {
		switch {
		case amount > 0:
			*creditors = append(*creditors, party{id: id, amount: amount})
		case amount < 0:
			*debtors = append(*debtors, party{id: id, amount: -amount})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)
	nonZero := creditors.Len() + debtors.Len()

	transfers := make([]Transfer, 0, max(nonZero-1, 0))
	for creditors.Len() > 0 && debtors.Len() > 0 {
		c := heap.Pop(creditors).(party)
		d := heap.Pop(debtors).(party)

		amt := min(c.amount, d.amount)
		transfers = append(transfers, Transfer{FromID: d.id, ToID: c.id, Amount: amt})

		if c.amount -= amt; c.amount > 0 {
			heap.Push(creditors, c)
		}
		if d.amount -= amt; d.amount > 0 {
			heap.Push(debtors, d)
		}
	}

	if err := verify(balances, transfers, nonZero); err != nil {
		return nil, err
	}
	return transfers, nil
}

// verify replays transfers on a copy of balances and checks that everything
// clears within the transfer bound.
func verify(balances balance.Balances, transfers []Transfer, nonZero int) error {
	if nonZero > 0 && len(transfers) > nonZero-1 {
		return apperrors.Invariant("plan has %d transfers for %d open balances", len(transfers), nonZero)
	}

	residue := make(balance.Balances, len(balances))
	for id, amount := range balances {
		residue[id] = amount
	}
	for _, t := range transfers {
		if t.Amount <= 0 {
			return apperrors.Invariant("plan transfer %s -> %s has non-positive amount %d", t.FromID, t.ToID, t.Amount)
		}
		residue[t.FromID] += t.Amount
		residue[t.ToID] -= t.Amount
	}
	for id, amount := range residue {
		if amount != 0 {
			return apperrors.Invariant("plan leaves %d cents open for %s", amount, id)
		}
	}
	return nil
}
