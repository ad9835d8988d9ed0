package expense

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/billsplit/internal/expense/split"
)

// MaxAmount is the largest amount, in cents, a single record may carry
const MaxAmount = 99_999_999

// CreateExpenseRequest represents the request to record an expense
type CreateExpenseRequest struct {
	Description string `json:"description" validate:"required,min=1,max=255"`
	Amount      int64  `json:"amount" validate:"gt=0,lte=99999999"`
	// PayerID defaults to the caller
	PayerID   string `json:"payer_id,omitempty" validate:"omitempty,max=64"`
	SplitType string `json:"split_type" validate:"required,oneof=equal percentage custom"`
	// Participants lists the consumers of an equal split; empty means everyone
	Participants []string                   `json:"participants,omitempty" validate:"omitempty,dive,required,max=64"`
	Percentages  map[string]decimal.Decimal `json:"percentages,omitempty" swaggertype:"object,number"`
	Amounts      map[string]int64           `json:"amounts,omitempty" validate:"omitempty,dive,gte=0,lte=99999999"`
}

// RecordPaymentRequest represents the request to record a payment between participants
type RecordPaymentRequest struct {
	// FromID defaults to the caller
	FromID string  `json:"from_id,omitempty" validate:"omitempty,max=64"`
	ToID   string  `json:"to_id" validate:"required,max=64"`
	Amount int64   `json:"amount" validate:"gt=0,lte=99999999"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=255"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID          string             `json:"id"`
	EventID     string             `json:"event_id"`
	Description string             `json:"description"`
	TotalAmount int64              `json:"total_amount"`
	PayerID     string             `json:"payer_id"`
	SplitType   split.SplitType    `json:"split_type"`
	Allocations []split.Allocation `json:"allocations"`
	CreatedBy   string             `json:"created_by"`
	CreatedAt   string             `json:"created_at"`
}

// PaymentResponse represents the response for a payment
type PaymentResponse struct {
	ID        string  `json:"id"`
	EventID   string  `json:"event_id"`
	FromID    string  `json:"from_id"`
	ToID      string  `json:"to_id"`
	Amount    int64   `json:"amount"`
	Note      *string `json:"note,omitempty"`
	CreatedBy string  `json:"created_by"`
	CreatedAt string  `json:"created_at"`
}

// LedgerEntryResponse is one record of the ledger history
type LedgerEntryResponse struct {
	Kind    EntryKind        `json:"kind"`
	Expense *ExpenseResponse `json:"expense,omitempty"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

// LedgerResponse represents an event's full ledger
type LedgerResponse struct {
	EventID      string                 `json:"event_id"`
	Participants []string               `json:"participants"`
	Entries      []*LedgerEntryResponse `json:"entries"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:          e.ID,
		EventID:     e.EventID,
		Description: e.Description,
		TotalAmount: e.TotalAmount,
		PayerID:     e.PayerID,
		SplitType:   e.SplitType,
		Allocations: e.Allocations,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Payment model to a PaymentResponse DTO
func (p *Payment) ToResponse() *PaymentResponse {
	return &PaymentResponse{
		ID:        p.ID,
		EventID:   p.EventID,
		FromID:    p.FromID,
		ToID:      p.ToID,
		Amount:    p.Amount,
		Note:      p.Note,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Ledger snapshot to a LedgerResponse DTO
func (l *Ledger) ToResponse() *LedgerResponse {
	entries := l.Entries()
	resp := &LedgerResponse{
		EventID:      l.EventID,
		Participants: l.Participants,
		Entries:      make([]*LedgerEntryResponse, len(entries)),
	}
	for i, entry := range entries {
		item := &LedgerEntryResponse{Kind: entry.Kind}
		if entry.Kind == EntryExpense {
			item.Expense = entry.Expense.ToResponse()
		} else {
			item.Payment = entry.Payment.ToResponse()
		}
		resp.Entries[i] = item
	}
	return resp
}
