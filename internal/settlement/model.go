package settlement

import "github.com/fkhayef/billsplit/internal/balance"

// Transfer is one point-to-point payment of a settlement plan
type Transfer struct {
	FromID string `json:"from_id"` // debtor
	ToID   string `json:"to_id"`   // creditor
	Amount int64  `json:"amount"`  // cents
}

// Plan is the set of transfers that clears an event's balances. It is computed
// fresh on every read and never stored.
type Plan struct {
	EventID   string          `json:"event_id"`
	Balances  []balance.Entry `json:"balances"`
	Transfers []Transfer      `json:"transfers"`
}
