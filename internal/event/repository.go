package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fkhayef/billsplit/internal/apperrors"
	"github.com/fkhayef/billsplit/internal/database"
)

// Postgres error codes the repository translates.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Repository handles event and participant persistence in Postgres
type Repository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewRepository creates a new event repository. Status transitions wait at
// most lockTimeout for the event's write lock.
func NewRepository(db *sql.DB, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

var _ Store = (*Repository)(nil)

// CreateEvent inserts the event and its creator's membership in one transaction
func (r *Repository) CreateEvent(ctx context.Context, e *Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, name, description, category, creator_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Name, e.Description, e.Category, e.CreatorID, e.Status, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_participants (event_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`, e.ID, e.CreatorID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add creator as participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by its ID
func (r *Repository) GetEvent(ctx context.Context, id string) (*Event, error) {
	query := `
		SELECT id, name, description, category, creator_id, status, created_at
		FROM events
		WHERE id = $1
	`

	e := &Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.Category,
		&e.CreatorID,
		&e.Status,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("event %s", id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return e, nil
}

// ListEventsForUser retrieves every event the user participates in
func (r *Repository) ListEventsForUser(ctx context.Context, userID string) ([]*Event, error) {
	query := `
		SELECT e.id, e.name, e.description, e.category, e.creator_id, e.status, e.created_at
		FROM events e
		JOIN event_participants p ON e.id = p.event_id
		WHERE p.user_id = $1
		ORDER BY e.created_at DESC, e.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.Description,
			&e.Category,
			&e.CreatorID,
			&e.Status,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// TransitionStatus locks the event, runs guard against the locked row and
// updates the status in the same transaction
func (r *Repository) TransitionStatus(ctx context.Context, id string, to Status, guard TransitionGuard) (*Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := database.LockEvent(ctx, tx, id, r.lockTimeout); err != nil {
		return nil, err
	}

	current := &Event{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, description, category, creator_id, status, created_at
		FROM events
		WHERE id = $1
	`, id).Scan(
		&current.ID,
		&current.Name,
		&current.Description,
		&current.Category,
		&current.CreatorID,
		&current.Status,
		&current.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("event %s", id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if err := guard(ctx, current); err != nil {
		return nil, err
	}

	e := &Event{}
	err = tx.QueryRowContext(ctx, `
		UPDATE events
		SET status = $2
		WHERE id = $1
		RETURNING id, name, description, category, creator_id, status, created_at
	`, id, to).Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.Category,
		&e.CreatorID,
		&e.Status,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}
	return e, nil
}

// AddParticipant inserts a membership row
func (r *Repository) AddParticipant(ctx context.Context, p *Participant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_participants (event_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`, p.EventID, p.UserID, p.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqUniqueViolation:
				return apperrors.Conflict("user %s already participates in event %s", p.UserID, p.EventID)
			case pqForeignKeyViolation:
				return apperrors.NotFound("event %s", p.EventID)
			}
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// ListParticipants retrieves the members of an event ordered by user id
func (r *Repository) ListParticipants(ctx context.Context, eventID string) ([]*Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, user_id, joined_at
		FROM event_participants
		WHERE event_id = $1
		ORDER BY user_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		p := &Participant{}
		if err := rows.Scan(&p.EventID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return participants, nil
}
