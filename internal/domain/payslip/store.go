package payslip

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const payslipColumns = `
  id, payroll_id, employee_id, payslip_number, payslip_data,
  COALESCE(file_path, ''), is_emailed, emailed_at, is_downloaded, downloaded_at, created_at`

func scanPayslip(row pgx.Row) (Payslip, error) {
	var p Payslip
	var data []byte
	err := row.Scan(&p.ID, &p.PayrollID, &p.EmployeeID, &p.Number, &data,
		&p.FilePath, &p.IsEmailed, &p.EmailedAt, &p.IsDownloaded, &p.DownloadedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payslip{}, ErrNotFound
	}
	if err != nil {
		return Payslip{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p.Data); err != nil {
			return Payslip{}, err
		}
	}
	return p, nil
}

func (s *Store) Insert(ctx context.Context, p *Payslip) error {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return err
	}
	return s.DB.QueryRow(ctx, `
    INSERT INTO payslips (payroll_id, employee_id, payslip_number, payslip_data, file_path)
    VALUES ($1,$2,$3,$4,NULLIF($5, ''))
    RETURNING id, created_at
  `, p.PayrollID, p.EmployeeID, p.Number, data, p.FilePath).Scan(&p.ID, &p.CreatedAt)
}

func (s *Store) GetByID(ctx context.Context, id string) (Payslip, error) {
	return scanPayslip(s.DB.QueryRow(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips
    WHERE id = $1
  `, id))
}

func (s *Store) GetByPayrollID(ctx context.Context, payrollID string) (Payslip, error) {
	return scanPayslip(s.DB.QueryRow(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips
    WHERE payroll_id = $1
  `, payrollID))
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (s *Store) ListForPeriod(ctx context.Context, year, month int) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips p
    WHERE payroll_id IN (SELECT id FROM payrolls WHERE period_year = $1 AND period_month = $2)
    ORDER BY created_at
  `, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Payslip, error) {
	var out []Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) SetFilePath(ctx context.Context, id, path string) error {
	_, err := s.DB.Exec(ctx, "UPDATE payslips SET file_path = $1 WHERE id = $2", path, id)
	return err
}

func (s *Store) MarkEmailed(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE payslips SET is_emailed = true, emailed_at = now() WHERE id = $1", id)
	return err
}

func (s *Store) MarkDownloaded(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE payslips SET is_downloaded = true, downloaded_at = now() WHERE id = $1", id)
	return err
}

// FilePaths lists every stored document path, used to protect referenced
// files from temp cleanup.
func (s *Store) FilePaths(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT file_path FROM payslips WHERE file_path IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}
