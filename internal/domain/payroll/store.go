package payroll

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// IsUniqueViolation reports a unique-constraint failure, the signal two
// concurrent computations raced on the same (employee, period).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const payrollColumns = `
  id, employee_id, period_year, period_month,
  basic_salary, house_allowance, transport_allowance, medical_allowance,
  overtime_amount, bonus_amount, other_allowances, total_allowances, gross_pay,
  taxable_income, personal_relief, insurance_relief, total_relief,
  paye_tax, nhif_deduction, nssf_deduction, insurance_deduction,
  loan_deduction, other_deductions, total_deductions, net_pay,
  status, calculation_details, processed_at, COALESCE(processed_by::text, ''), created_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	var details []byte
	err := row.Scan(&r.ID, &r.EmployeeID, &r.PeriodYear, &r.PeriodMonth,
		&r.BasicSalary, &r.HouseAllowance, &r.TransportAllowance, &r.MedicalAllowance,
		&r.OvertimeAmount, &r.BonusAmount, &r.OtherAllowances, &r.TotalAllowances, &r.GrossPay,
		&r.TaxableIncome, &r.PersonalRelief, &r.InsuranceRelief, &r.TotalRelief,
		&r.PAYETax, &r.NHIFDeduction, &r.NSSFDeduction, &r.InsuranceDeduction,
		&r.LoanDeduction, &r.OtherDeductions, &r.TotalDeductions, &r.NetPay,
		&r.Status, &details, &r.ProcessedAt, &r.ProcessedBy, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &r.Details); err != nil {
			r.Details = map[string]any{}
		}
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE id = $1
  `, id))
}

func (s *Store) GetByEmployeePeriod(ctx context.Context, employeeID string, period PeriodKey) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE employee_id = $1 AND period_year = $2 AND period_month = $3
  `, employeeID, period.Year, period.Month))
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE employee_id = $1
    ORDER BY period_year DESC, period_month DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) ListForPeriod(ctx context.Context, period PeriodKey) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE period_year = $1 AND period_month = $2
    ORDER BY created_at
  `, period.Year, period.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, r *Record) error {
	details, err := json.Marshal(r.Details)
	if err != nil {
		details = []byte("{}")
	}
	return s.DB.QueryRow(ctx, `
    INSERT INTO payrolls (
      employee_id, period_year, period_month,
      basic_salary, house_allowance, transport_allowance, medical_allowance,
      overtime_amount, bonus_amount, other_allowances, total_allowances, gross_pay,
      taxable_income, personal_relief, insurance_relief, total_relief,
      paye_tax, nhif_deduction, nssf_deduction, insurance_deduction,
      loan_deduction, other_deductions, total_deductions, net_pay,
      status, calculation_details
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
    RETURNING id, created_at
  `, r.EmployeeID, r.PeriodYear, r.PeriodMonth,
		r.BasicSalary, r.HouseAllowance, r.TransportAllowance, r.MedicalAllowance,
		r.OvertimeAmount, r.BonusAmount, r.OtherAllowances, r.TotalAllowances, r.GrossPay,
		r.TaxableIncome, r.PersonalRelief, r.InsuranceRelief, r.TotalRelief,
		r.PAYETax, r.NHIFDeduction, r.NSSFDeduction, r.InsuranceDeduction,
		r.LoanDeduction, r.OtherDeductions, r.TotalDeductions, r.NetPay,
		r.Status, details).Scan(&r.ID, &r.CreatedAt)
}

// UpdateComputation refreshes the computed fields of an existing draft.
func (s *Store) UpdateComputation(ctx context.Context, r *Record) error {
	details, err := json.Marshal(r.Details)
	if err != nil {
		details = []byte("{}")
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE payrolls SET
      basic_salary = $1, house_allowance = $2, transport_allowance = $3, medical_allowance = $4,
      overtime_amount = $5, bonus_amount = $6, other_allowances = $7, total_allowances = $8, gross_pay = $9,
      taxable_income = $10, personal_relief = $11, insurance_relief = $12, total_relief = $13,
      paye_tax = $14, nhif_deduction = $15, nssf_deduction = $16, insurance_deduction = $17,
      loan_deduction = $18, other_deductions = $19, total_deductions = $20, net_pay = $21,
      calculation_details = $22
    WHERE id = $23 AND status = $24
  `, r.BasicSalary, r.HouseAllowance, r.TransportAllowance, r.MedicalAllowance,
		r.OvertimeAmount, r.BonusAmount, r.OtherAllowances, r.TotalAllowances, r.GrossPay,
		r.TaxableIncome, r.PersonalRelief, r.InsuranceRelief, r.TotalRelief,
		r.PAYETax, r.NHIFDeduction, r.NSSFDeduction, r.InsuranceDeduction,
		r.LoanDeduction, r.OtherDeductions, r.TotalDeductions, r.NetPay,
		details, r.ID, StatusDraft)
	return err
}

func (s *Store) MarkProcessed(ctx context.Context, id, processedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payrolls SET status = $1, processed_at = now(), processed_by = $2
    WHERE id = $3 AND status = $4
  `, StatusProcessed, processedBy, id, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

func (s *Store) MarkPaid(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payrolls SET status = $1 WHERE id = $2 AND status = $3
  `, StatusPaid, id, StatusProcessed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

func (s *Store) ListAllowances(ctx context.Context, employeeID string) ([]Allowance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, kind, amount, effective_date, end_date, status
    FROM allowances
    WHERE employee_id = $1
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Allowance
	for rows.Next() {
		var a Allowance
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Kind, &a.Amount, &a.EffectiveDate, &a.EndDate, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) ActiveLoan(ctx context.Context, employeeID string) (*EmployeeLoan, error) {
	var loan EmployeeLoan
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, principal, interest_rate, term_months, monthly_installment, remaining_balance, status, created_at
    FROM employee_loans
    WHERE employee_id = $1 AND status = $2
    ORDER BY created_at
    LIMIT 1
  `, employeeID, LoanStatusActive).Scan(&loan.ID, &loan.EmployeeID, &loan.Principal, &loan.InterestRate,
		&loan.TermMonths, &loan.MonthlyInstallment, &loan.RemainingBalance, &loan.Status, &loan.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ApplyRepayment records a repayment and decrements the loan balance in one
// transaction; the loan flips to completed when nothing remains.
func (s *Store) ApplyRepayment(ctx context.Context, loanID, payrollID string, principal, interest float64) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO loan_repayments (loan_id, payroll_id, principal, interest)
    VALUES ($1,$2,$3,$4)
  `, loanID, payrollID, principal, interest); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE employee_loans
    SET remaining_balance = GREATEST(remaining_balance - $1, 0),
        status = CASE WHEN remaining_balance - $1 <= 0 THEN $2 ELSE status END
    WHERE id = $3
  `, principal, LoanStatusCompleted, loanID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
