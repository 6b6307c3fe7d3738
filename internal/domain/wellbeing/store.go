package wellbeing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrcore/internal/domain/access"
)

var ErrNotFound = errors.New("wellbeing response not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const responseColumns = `
  w.id, w.employee_id, w.period_start, w.period_end,
  w.stress_level, w.work_life_balance, w.job_satisfaction, w.support_feeling,
  COALESCE(w.comments, ''), w.metrics, w.created_at,
  COALESCE(e.user_id::text, '')`

func scanResponse(row pgx.Row) (Response, error) {
	var r Response
	var metrics []byte
	err := row.Scan(&r.ID, &r.EmployeeID, &r.PeriodStart, &r.PeriodEnd,
		&r.StressLevel, &r.WorkLifeBalance, &r.JobSatisfaction, &r.SupportFeeling,
		&r.Comments, &metrics, &r.CreatedAt,
		&r.ownerUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Response{}, ErrNotFound
	}
	if err != nil {
		return Response{}, err
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &r.Metrics); err != nil {
			r.Metrics = map[string]any{}
		}
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, id string) (Response, error) {
	return scanResponse(s.DB.QueryRow(ctx, `
    SELECT `+responseColumns+`
    FROM wellbeing_responses w
    JOIN employees e ON e.id = w.employee_id
    WHERE w.id = $1
  `, id))
}

func (s *Store) Insert(ctx context.Context, r *Response) error {
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		metrics = []byte("{}")
	}
	return s.DB.QueryRow(ctx, `
    INSERT INTO wellbeing_responses (employee_id, period_start, period_end, stress_level, work_life_balance, job_satisfaction, support_feeling, comments, metrics)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id, created_at
  `, r.EmployeeID, r.PeriodStart, r.PeriodEnd, r.StressLevel, r.WorkLifeBalance,
		r.JobSatisfaction, r.SupportFeeling, r.Comments, metrics).Scan(&r.ID, &r.CreatedAt)
}

// List returns the responses inside the visibility filter, optionally
// limited to a period window.
func (s *Store) List(ctx context.Context, filter access.Filter, from, to *time.Time, limit, offset int) ([]Response, int, error) {
	base := `
    FROM wellbeing_responses w
    JOIN employees e ON e.id = w.employee_id
    WHERE e.deleted_at IS NULL`
	args := []any{}
	if from != nil {
		base += fmt.Sprintf(" AND w.period_end >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		base += fmt.Sprintf(" AND w.period_start <= $%d", len(args)+1)
		args = append(args, *to)
	}
	base, args = filter.Apply(base, args)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) "+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + responseColumns + base +
		fmt.Sprintf(" ORDER BY w.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, nil
}

// ListForReport returns every in-scope response in a window, unpaginated,
// for aggregation.
func (s *Store) ListForReport(ctx context.Context, filter access.Filter, from, to time.Time) ([]Response, error) {
	query := `
    SELECT ` + responseColumns + `
    FROM wellbeing_responses w
    JOIN employees e ON e.id = w.employee_id
    WHERE e.deleted_at IS NULL AND w.period_end >= $1 AND w.period_start <= $2`
	args := []any{from, to}
	query, args = filter.Apply(query, args)
	query += " ORDER BY w.created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
