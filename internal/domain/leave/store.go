package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrcore/internal/domain/access"
)

var (
	ErrNotFound     = errors.New("leave request not found")
	ErrInvalidState = errors.New("leave request not in a modifiable state")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const requestColumns = `
  lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
  lr.start_half, lr.end_half, lr.days, lr.reason, lr.status,
  COALESCE(lr.decided_by::text, ''), lr.decided_at, COALESCE(lr.comment, ''), lr.created_at,
  COALESCE(e.user_id::text, '')`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate,
		&r.StartHalf, &r.EndHalf, &r.Days, &r.Reason, &r.Status,
		&r.DecidedBy, &r.DecidedAt, &r.Comment, &r.CreatedAt,
		&r.ownerUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    WHERE lr.id = $1
  `, id))
}

// List returns the requests inside the visibility filter, newest first,
// with the unfiltered-within-scope total for pagination.
func (s *Store) List(ctx context.Context, filter access.Filter, status string, limit, offset int) ([]Request, int, error) {
	base := `
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    WHERE e.deleted_at IS NULL`
	args := []any{}
	if status != "" {
		base += fmt.Sprintf(" AND lr.status = $%d", len(args)+1)
		args = append(args, status)
	}
	base, args = filter.Apply(base, args)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) "+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + requestColumns + base +
		fmt.Sprintf(" ORDER BY lr.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, nil
}

func (s *Store) Insert(ctx context.Context, r *Request) error {
	return s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, start_half, end_half, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id, created_at
  `, r.EmployeeID, r.LeaveType, r.StartDate, r.EndDate, r.StartHalf, r.EndHalf, r.Days, r.Reason, r.Status).
		Scan(&r.ID, &r.CreatedAt)
}

// Update rewrites the editable fields of a pending request; anything past
// pending is immutable.
func (s *Store) Update(ctx context.Context, r *Request) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET leave_type = $1, start_date = $2, end_date = $3, start_half = $4, end_half = $5, days = $6, reason = $7
    WHERE id = $8 AND status = $9
  `, r.LeaveType, r.StartDate, r.EndDate, r.StartHalf, r.EndHalf, r.Days, r.Reason, r.ID, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM leave_requests WHERE id = $1 AND status = $2
  `, id, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// SetDecision moves a pending request to approved or rejected. The guard on
// the current status makes concurrent decisions race-safe: exactly one
// wins, the other sees ErrInvalidState.
func (s *Store) SetDecision(ctx context.Context, id, status, decidedBy, comment string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, decided_by = $2, decided_at = now(), comment = $3
    WHERE id = $4 AND status = $5
  `, status, decidedBy, comment, id, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}
