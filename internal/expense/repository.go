package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/database"
	"github.com/fkhayef/billsplit/internal/expense/split"
)

// Repository handles ledger persistence in Postgres
type Repository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewRepository creates a new ledger repository. Appends wait at most
// lockTimeout for the event's write lock.
func NewRepository(db *sql.DB, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

var _ Store = (*Repository)(nil)

// AppendExpense inserts an expense and its allocations under the event's write lock
func (r *Repository) AppendExpense(ctx context.Context, e *Expense) error {
	return r.withEventLock(ctx, e.EventID, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO expenses (id, event_id, description, total_amount, payer_id, split_type, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING seq
		`, e.ID, e.EventID, e.Description, e.TotalAmount, e.PayerID, e.SplitType, e.CreatedBy, e.CreatedAt).Scan(&e.Seq)
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO expense_allocations (expense_id, user_id, amount)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare allocation insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range e.Allocations {
			if _, err := stmt.ExecContext(ctx, e.ID, a.UserID, a.Amount); err != nil {
				return fmt.Errorf("failed to create allocation: %w", err)
			}
		}
		return nil
	})
}

// AppendPayment inserts a payment under the event's write lock
func (r *Repository) AppendPayment(ctx context.Context, p *Payment) error {
	return r.withEventLock(ctx, p.EventID, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO payments (id, event_id, from_id, to_id, amount, note, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING seq
		`, p.ID, p.EventID, p.FromID, p.ToID, p.Amount, p.Note, p.CreatedBy, p.CreatedAt).Scan(&p.Seq)
		if err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
}

// withEventLock runs fn in a transaction holding the event's advisory lock. The
// event's status is re-read under the lock so a write cannot land on an event
// completed concurrently.
func (r *Repository) withEventLock(ctx context.Context, eventID string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := database.LockEvent(ctx, tx, eventID, r.lockTimeout); err != nil {
		return err
	}

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM events WHERE id = $1`, eventID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("event %s", eventID)
		}
		return fmt.Errorf("failed to get event status: %w", err)
	}
	if status != "active" {
		return apperrors.Validation("event %s is %s and accepts no new records", eventID, status)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger write: %w", err)
	}
	return nil
}

// LoadLedger reads an event's participants and records from one snapshot
func (r *Repository) LoadLedger(ctx context.Context, eventID string) (*Ledger, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("event %s", eventID)
	}

	ledger := &Ledger{EventID: eventID}

	if ledger.Participants, err = r.participants(ctx, tx, eventID); err != nil {
		return nil, err
	}
	if ledger.Expenses, err = r.expenses(ctx, tx, eventID); err != nil {
		return nil, err
	}
	if ledger.Payments, err = r.payments(ctx, tx, eventID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return ledger, nil
}

func (r *Repository) participants(ctx context.Context, tx *sql.Tx, eventID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT user_id FROM event_participants WHERE event_id = $1 ORDER BY user_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) expenses(ctx context.Context, tx *sql.Tx, eventID string) ([]*Expense, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, description, total_amount, payer_id, split_type, created_by, created_at, seq
		FROM expenses
		WHERE event_id = $1
		ORDER BY seq
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	byID := make(map[string]*Expense)
	for rows.Next() {
		e := &Expense{EventID: eventID}
		if err := rows.Scan(&e.ID, &e.Description, &e.TotalAmount, &e.PayerID, &e.SplitType, &e.CreatedBy, &e.CreatedAt, &e.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	rows.Close()

	allocRows, err := tx.QueryContext(ctx, `
		SELECT a.expense_id, a.user_id, a.amount
		FROM expense_allocations a
		JOIN expenses e ON e.id = a.expense_id
		WHERE e.event_id = $1
		ORDER BY a.expense_id, a.user_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer allocRows.Close()

	for allocRows.Next() {
		var expenseID string
		var a split.Allocation
		if err := allocRows.Scan(&expenseID, &a.UserID, &a.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Allocations = append(e.Allocations, a)
		}
	}
	if err := allocRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	return expenses, nil
}

func (r *Repository) payments(ctx context.Context, tx *sql.Tx, eventID string) ([]*Payment, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, from_id, to_id, amount, note, created_by, created_at, seq
		FROM payments
		WHERE event_id = $1
		ORDER BY seq
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{EventID: eventID}
		if err := rows.Scan(&p.ID, &p.FromID, &p.ToID, &p.Amount, &p.Note, &p.CreatedBy, &p.CreatedAt, &p.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}
