package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
  id, user_id, COALESCE(supervisor_id::text, ''), first_name, last_name, email,
  employee_no, department, designation, basic_salary, status, created_at, deleted_at`

func (s *Store) scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.UserID, &e.SupervisorID, &e.FirstName, &e.LastName, &e.Email,
		&e.EmployeeNo, &e.Department, &e.Designation, &e.BasicSalary, &e.Status, &e.CreatedAt, &e.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	return s.scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE id = $1 AND deleted_at IS NULL
  `, id))
}

func (s *Store) GetByUserID(ctx context.Context, userID string) (Employee, error) {
	return s.scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE user_id = $1 AND deleted_at IS NULL
  `, userID))
}

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE deleted_at IS NULL
    ORDER BY last_name, first_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, e Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, supervisor_id, first_name, last_name, email, employee_no, department, designation, basic_salary, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, e.UserID, nullIfEmpty(e.SupervisorID), e.FirstName, e.LastName, e.Email, e.EmployeeNo, e.Department, e.Designation, e.BasicSalary, StatusActive).Scan(&id)
	return id, err
}

// ReassignSupervisor points an employee at a new supervisor; empty id
// clears the edge.
func (s *Store) ReassignSupervisor(ctx context.Context, employeeID, supervisorID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET supervisor_id = $1 WHERE id = $2 AND deleted_at IS NULL
  `, nullIfEmpty(supervisorID), employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Terminate soft-deletes the employee; payroll history stays intact.
func (s *Store) Terminate(ctx context.Context, employeeID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET status = $1, deleted_at = now() WHERE id = $2 AND deleted_at IS NULL
  `, StatusTerminated, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadDirectory pulls the supervisor graph into memory for bounded
// traversal by the access engine.
func (s *Store) LoadDirectory(ctx context.Context) (*Directory, error) {
	employees, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewDirectory(employees), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
