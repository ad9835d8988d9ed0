// Package balance derives participant balances from an event's ledger and
// aggregates them across events.
//
// Balances are never stored. Every read recomputes them from the full ledger so
// they cannot drift from the records they are derived from.
package balance

import (
	"sort"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/internal/expense/split"
)

// Balances maps a participant id to a signed amount in cents. Positive means
// the participant is owed money, negative means they owe.
type Balances map[string]int64

// Entry is one participant's balance
type Entry struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// Compute derives every participant's balance from a ledger snapshot.
//
// Each expense credits the payer with its total and debits every allocation;
// each payment credits the sender and debits the receiver. The balances must
// net to zero after every record. A record that breaks this returns an error
// wrapping apperrors.ErrInvariant.
func Compute(ledger *expense.Ledger) (Balances, error) {
	balances := make(Balances, len(ledger.Participants))
	for _, id := range ledger.Participants {
		balances[id] = 0
	}

	var running int64
	for _, entry := range ledger.Entries() {
		switch entry.Kind {
		case expense.EntryExpense:
			e := entry.Expense
			if allocated := split.Sum(e.Allocations); allocated != e.TotalAmount {
				return nil, apperrors.Invariant("event %s: expense %s allocates %d of %d cents",
					ledger.EventID, e.ID, allocated, e.TotalAmount)
			}
			balances[e.PayerID] += e.TotalAmount
			running += e.TotalAmount
			for _, a := range e.Allocations {
				balances[a.UserID] -= a.Amount
				running -= a.Amount
			}
			if running != 0 {
				return nil, apperrors.Invariant("event %s: balances net to %d after expense %s", ledger.EventID, running, e.ID)
			}

		case expense.EntryPayment:
			p := entry.Payment
			if p.Amount <= 0 {
				return nil, apperrors.Invariant("event %s: payment %s has non-positive amount %d", ledger.EventID, p.ID, p.Amount)
			}
			balances[p.FromID] += p.Amount
			balances[p.ToID] -= p.Amount
		}
	}

	if sum := balances.Sum(); sum != 0 {
		return nil, apperrors.Invariant("event %s: balances net to %d", ledger.EventID, sum)
	}
	return balances, nil
}

// Sum adds up every balance. It is zero for any correctly derived set.
func (b Balances) Sum() int64 {
	var sum int64
	for _, v := range b {
		sum += v
	}
	return sum
}

// IsSettled reports whether every balance is zero
func (b Balances) IsSettled() bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Sorted returns the balances ordered by user id
func (b Balances) Sorted() []Entry {
	entries := make([]Entry, 0, len(b))
	for id, v := range b {
		entries = append(entries, Entry{UserID: id, Balance: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries
}
