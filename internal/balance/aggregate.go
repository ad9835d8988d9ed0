package balance

import (
	"sort"
	"time"

	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense"
)

// EventLedger pairs an event with its ledger snapshot
type EventLedger struct {
	Event  *event.Event
	Ledger *expense.Ledger
}

// EventBalance is a user's balance in one event
type EventBalance struct {
	EventID   string    `json:"event_id"`
	EventName string    `json:"event_name"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"-"`
}

// UserTotal is a user's balance summed across every event they participate in
type UserTotal struct {
	UserID   string         `json:"user_id"`
	Total    int64          `json:"total"`
	PerEvent []EventBalance `json:"per_event"`
}

// TotalBalance computes a user's balance in each event and sums them. Events
// are listed most recent first, ties by event id, and settled events stay in
// the list with a zero balance.
func TotalBalance(userID string, events []EventLedger) (*UserTotal, error) {
	total := &UserTotal{
		UserID:   userID,
		PerEvent: make([]EventBalance, 0, len(events)),
	}

	for _, el := range events {
		balances, err := Compute(el.Ledger)
		if err != nil {
			return nil, err
		}
		amount := balances[userID]
		total.Total += amount
		total.PerEvent = append(total.PerEvent, EventBalance{
			EventID:   el.Event.ID,
			EventName: el.Event.Name,
			Balance:   amount,
			CreatedAt: el.Event.CreatedAt,
		})
	}

	sort.SliceStable(total.PerEvent, func(i, j int) bool {
		a, b := total.PerEvent[i], total.PerEvent[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.EventID < b.EventID
	})
	return total, nil
}
