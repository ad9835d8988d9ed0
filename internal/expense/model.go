package expense

import (
	"context"
	"sort"
	"time"

	"github.com/fkhayef/billsplit/internal/expense/split"
)

// Expense is an immutable ledger record of money one participant paid for a group
type Expense struct {
	ID          string             `json:"id"`
	EventID     string             `json:"event_id"`
	Description string             `json:"description"`
	TotalAmount int64              `json:"total_amount"` // cents
	PayerID     string             `json:"payer_id"`
	SplitType   split.SplitType    `json:"split_type"`
	Allocations []split.Allocation `json:"allocations"` // sorted by user id, sums to TotalAmount
	CreatedBy   string             `json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
	// Seq is assigned by the store on append and orders records across kinds
	Seq         int64              `json:"-"`
}

// Payment records money transferred outside the system from one participant to another
type Payment struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Amount    int64     `json:"amount"` // cents
	Note      *string   `json:"note,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Seq       int64     `json:"-"`
}

// EntryKind distinguishes the records of a ledger
type EntryKind string

const (
	EntryExpense EntryKind = "expense"
	EntryPayment EntryKind = "payment"
)

// Entry is one record of a ledger in append order. Exactly one of Expense and
// Payment is set.
type Entry struct {
	Kind    EntryKind
	Expense *Expense
	Payment *Payment
}

// CreatedAt returns the creation time of the underlying record
func (e Entry) CreatedAt() time.Time {
	if e.Kind == EntryExpense {
		return e.Expense.CreatedAt
	}
	return e.Payment.CreatedAt
}

// Seq returns the append sequence of the underlying record
func (e Entry) Seq() int64 {
	if e.Kind == EntryExpense {
		return e.Expense.Seq
	}
	return e.Payment.Seq
}

// ID returns the id of the underlying record
func (e Entry) ID() string {
	if e.Kind == EntryExpense {
		return e.Expense.ID
	}
	return e.Payment.ID
}

// Ledger is a snapshot of everything recorded for one event
type Ledger struct {
	EventID      string
	Participants []string // sorted
	Expenses     []*Expense
	Payments     []*Payment
}

// Len returns the number of records in the ledger
func (l *Ledger) Len() int {
	return len(l.Expenses) + len(l.Payments)
}

// Entries merges expenses and payments into append order. Records without a
// sequence, such as hand-built snapshots, fall back to (created_at, id).
func (l *Ledger) Entries() []Entry {
	entries := make([]Entry, 0, l.Len())
	for _, e := range l.Expenses {
		entries = append(entries, Entry{Kind: EntryExpense, Expense: e})
	}
	for _, p := range l.Payments {
		entries = append(entries, Entry{Kind: EntryPayment, Payment: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Seq() != b.Seq() {
			return a.Seq() < b.Seq()
		}
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().Before(b.CreatedAt())
		}
		return a.ID() < b.ID()
	})
	return entries
}

// Store is the persistence contract for an event's ledger.
//
// Appends are serialized per event. An append that cannot obtain the event's
// write lock within the store's bound fails with apperrors.ErrConflict, and an
// append to an event that is no longer active fails with apperrors.ErrValidation.
// Either way nothing is written.
type Store interface {
	AppendExpense(ctx context.Context, e *Expense) error
	AppendPayment(ctx context.Context, p *Payment) error
	// LoadLedger returns a consistent snapshot, or apperrors.ErrNotFound for an unknown event.
	LoadLedger(ctx context.Context, eventID string) (*Ledger, error)
}
