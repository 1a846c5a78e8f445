package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"sportmeet/internal/domain"
)

const participantColumns = "id, event_id, user_id, role, status, note, joined_at, created_at, updated_at"

const uniqueViolation = "23505"

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func scanParticipant(row interface{ Scan(...any) error }) (*domain.Participant, error) {
	p := &domain.Participant{}
	err := row.Scan(
		&p.ID, &p.EventID, &p.UserID, &p.Role, &p.Status,
		&p.Note, &p.JoinedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (event_id, user_id, role, status, note, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		p.EventID, p.UserID, p.Role, p.Status, p.Note, p.JoinedAt, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyParticipant
		}
		return err
	}
	return nil
}

func (r *participantRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE event_id = $1 AND user_id = $2
	`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE event_id = $1
		ORDER BY joined_at ASC
	`
	return r.list(ctx, query, eventID)
}

func (r *participantRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE user_id = $1
		ORDER BY joined_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *participantRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Participant, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) CountAcceptedPlayers(ctx context.Context, eventID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM participants
		WHERE event_id = $1 AND role = $2 AND status = $3
	`
	var n int
	err := r.DB.QueryRowContext(ctx, query, eventID, domain.RolePlayer, domain.StatusAccepted).Scan(&n)
	return n, err
}

func (r *participantRepository) UpdateStatus(ctx context.Context, participantID, status string) (*domain.Participant, error) {
	query := `
		UPDATE participants
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + participantColumns + `
	`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, status, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Approve flips a pending row to accepted while holding a row lock on the
// event, so the capacity check and the status write form one atomic step and
// concurrent approvals cannot overshoot the last slot.
func (r *participantRepository) Approve(ctx context.Context, eventID, participantID string) (*domain.Participant, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	event := &domain.Event{ID: eventID}
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).
		Scan(&event.Capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var accepted int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE event_id = $1 AND role = $2 AND status = $3`,
		eventID, domain.RolePlayer, domain.StatusAccepted,
	).Scan(&accepted)
	if err != nil {
		return nil, err
	}
	if !domain.CanApprove(event, accepted) {
		return nil, domain.ErrEventFull
	}

	query := `
		UPDATE participants
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND event_id = $3 AND status = $4
		RETURNING ` + participantColumns + `
	`
	p, err := scanParticipant(tx.QueryRowContext(ctx, query,
		domain.StatusAccepted, participantID, eventID, domain.StatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) Delete(ctx context.Context, participantID string) error {
	query := `DELETE FROM participants WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, participantID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) DeleteByEventIDAndStatuses(ctx context.Context, eventID string, statuses []string) (int64, error) {
	query := `DELETE FROM participants WHERE event_id = $1 AND status = ANY($2)`
	result, err := r.DB.ExecContext(ctx, query, eventID, pq.Array(statuses))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
