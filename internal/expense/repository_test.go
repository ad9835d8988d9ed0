package expense_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/expense"
	"github.com/fkhayef/billsplit/internal/expense/split"
)

var (
	setLockTimeout = regexp.QuoteMeta("SET LOCAL lock_timeout = '250ms'")
	advisoryLock   = regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")
	selectStatus   = regexp.QuoteMeta("SELECT status FROM events WHERE id = $1")
)

func newMockRepository(t *testing.T) (*expense.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return expense.NewRepository(db, 250*time.Millisecond), mock
}

func sampleExpense() *expense.Expense {
	return &expense.Expense{
		ID:          "exp-1",
		EventID:     "evt-1",
		Description: "Dinner",
		TotalAmount: 1000,
		PayerID:     "A",
		SplitType:   split.SplitTypeEqual,
		Allocations: []split.Allocation{{UserID: "A", Amount: 500}, {UserID: "B", Amount: 500}},
		CreatedBy:   "A",
		CreatedAt:   now,
	}
}

func TestRepository_AppendExpense(t *testing.T) {
	repo, mock := newMockRepository(t)
	e := sampleExpense()

	mock.ExpectBegin()
	mock.ExpectExec(setLockTimeout).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(advisoryLock).WithArgs("evt-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectStatus).WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectQuery("INSERT INTO expenses").
		WithArgs("exp-1", "evt-1", "Dinner", int64(1000), "A", "equal", "A", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))
	prep := mock.ExpectPrepare("INSERT INTO expense_allocations")
	prep.ExpectExec().WithArgs("exp-1", "A", int64(500)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("exp-1", "B", int64(500)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AppendExpense(context.Background(), e))
	assert.Equal(t, int64(7), e.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AppendExpenseLockTimeout(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(setLockTimeout).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(advisoryLock).WithArgs("evt-1").WillReturnError(&pq.Error{Code: "55P03"})
	mock.ExpectRollback()

	err := repo.AppendExpense(context.Background(), sampleExpense())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AppendPaymentInactiveEvent(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(setLockTimeout).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(advisoryLock).WithArgs("evt-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectStatus).WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))
	mock.ExpectRollback()

	err := repo.AppendPayment(context.Background(), &expense.Payment{
		ID: "pay-1", EventID: "evt-1", FromID: "B", ToID: "A", Amount: 500, CreatedBy: "B", CreatedAt: now,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AppendPaymentUnknownEvent(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(setLockTimeout).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(advisoryLock).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectStatus).WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := repo.AppendPayment(context.Background(), &expense.Payment{
		ID: "pay-1", EventID: "ghost", FromID: "B", ToID: "A", Amount: 500, CreatedBy: "B", CreatedAt: now,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LoadLedger(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT user_id FROM event_participants").WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("A").AddRow("B"))
	mock.ExpectQuery("FROM expenses").WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "total_amount", "payer_id", "split_type", "created_by", "created_at", "seq"}).
			AddRow("exp-1", "Dinner", int64(1000), "A", "equal", "A", now, int64(12)))
	mock.ExpectQuery("FROM expense_allocations").WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"expense_id", "user_id", "amount"}).
			AddRow("exp-1", "A", int64(500)).
			AddRow("exp-1", "B", int64(500)))
	mock.ExpectQuery("FROM payments").WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_id", "to_id", "amount", "note", "created_by", "created_at", "seq"}).
			AddRow("pay-1", "B", "A", int64(500), nil, "B", now, int64(11)))
	mock.ExpectCommit()

	ledger, err := repo.LoadLedger(context.Background(), "evt-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, ledger.Participants)
	require.Len(t, ledger.Expenses, 1)
	assert.Equal(t, split.SplitTypeEqual, ledger.Expenses[0].SplitType)
	assert.Equal(t, []split.Allocation{{UserID: "A", Amount: 500}, {UserID: "B", Amount: 500}}, ledger.Expenses[0].Allocations)
	require.Len(t, ledger.Payments, 1)
	assert.Nil(t, ledger.Payments[0].Note)
	assert.Equal(t, 2, ledger.Len())

	// same timestamp, the payment was appended first
	entries := ledger.Entries()
	assert.Equal(t, expense.EntryPayment, entries[0].Kind)
	assert.Equal(t, expense.EntryExpense, entries[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LoadLedgerUnknownEvent(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.LoadLedger(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
