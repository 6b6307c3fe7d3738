package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hrcore/internal/domain/notifications"
)

type Service struct {
	Store    StoreAPI
	Org      OrgAPI
	Tables   TaxTables
	Notifier Notifier
}

func NewService(store StoreAPI, orgStore OrgAPI, tables TaxTables) *Service {
	return &Service{Store: store, Org: orgStore, Tables: tables}
}

// ComputeForEmployee runs the calculator for one employee and period and
// persists the result. Exactly one payroll exists per (employee, period):
// recomputation updates the draft in place, and a concurrent insert race is
// resolved by refetching the row that won. A *ValidationError still leaves
// a draft record behind so the operator can inspect the breakdown.
func (s *Service) ComputeForEmployee(ctx context.Context, employeeID string, period PeriodKey) (Record, error) {
	employee, err := s.Org.Get(ctx, employeeID)
	if err != nil {
		return Record{}, err
	}

	allowances, err := s.Store.ListAllowances(ctx, employeeID)
	if err != nil {
		return Record{}, err
	}

	loan, err := s.Store.ActiveLoan(ctx, employeeID)
	if err != nil {
		return Record{}, err
	}
	var installment, principal, interest float64
	if loan != nil {
		principal, interest = InstallmentSplit(*loan)
		installment = principal + interest
	}

	computation, calcErr := Compute(ComputeInput{
		BasicSalary:     employee.BasicSalary,
		Allowances:      allowances,
		LoanInstallment: installment,
		Tables:          s.Tables,
	}, period)
	var validation *ValidationError
	if calcErr != nil && !errors.As(calcErr, &validation) {
		return Record{}, calcErr
	}

	record, created, err := s.saveComputation(ctx, employeeID, period, computation)
	if err != nil {
		return Record{}, err
	}

	// Overdrawn payrolls stay draft and never touch the loan.
	if validation != nil {
		return record, validation
	}

	// The balance moves once per payroll row, not on every recompute.
	if loan != nil && principal > 0 && created {
		if err := s.Store.ApplyRepayment(ctx, loan.ID, record.ID, principal, interest); err != nil {
			return record, err
		}
		slog.Info("loan repayment applied", "loanId", loan.ID, "payrollId", record.ID, "principal", principal)
	}

	return record, nil
}

func (s *Service) saveComputation(ctx context.Context, employeeID string, period PeriodKey, c Computation) (Record, bool, error) {
	existing, err := s.Store.GetByEmployeePeriod(ctx, employeeID, period)
	switch {
	case err == nil:
		if existing.Status != StatusDraft {
			return existing, false, ErrAlreadyProcessed
		}
		existing.Apply(c)
		if err := s.Store.UpdateComputation(ctx, &existing); err != nil {
			return Record{}, false, err
		}
		return existing, false, nil
	case errors.Is(err, ErrNotFound):
		record := Record{
			EmployeeID:  employeeID,
			PeriodYear:  period.Year,
			PeriodMonth: period.Month,
			Status:      StatusDraft,
		}
		record.Apply(c)
		insertErr := s.Store.Insert(ctx, &record)
		if insertErr == nil {
			return record, true, nil
		}
		if !IsUniqueViolation(insertErr) {
			return Record{}, false, insertErr
		}
		// Lost the race: another computation created the row first.
		// Reconcile by updating the winner instead of failing.
		winner, err := s.Store.GetByEmployeePeriod(ctx, employeeID, period)
		if err != nil {
			return Record{}, false, err
		}
		if winner.Status != StatusDraft {
			return winner, false, ErrAlreadyProcessed
		}
		winner.Apply(c)
		if err := s.Store.UpdateComputation(ctx, &winner); err != nil {
			return Record{}, false, err
		}
		return winner, false, nil
	default:
		return Record{}, false, err
	}
}

// RunResult summarizes a period-wide computation pass.
type RunResult struct {
	Computed int      `json:"computed"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// RunPeriod computes payroll for every active employee, continuing past
// individual failures so one bad record never blocks the run.
func (s *Service) RunPeriod(ctx context.Context, period PeriodKey) (RunResult, error) {
	employees, err := s.Org.List(ctx)
	if err != nil {
		return RunResult{}, err
	}

	var result RunResult
	for _, employee := range employees {
		if _, err := s.ComputeForEmployee(ctx, employee.ID, period); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, employee.ID+": "+err.Error())
			slog.Warn("payroll computation failed", "employeeId", employee.ID, "period", period.String(), "err", err)
			continue
		}
		result.Computed++
	}
	slog.Info("payroll run finished", "period", period.String(), "computed", result.Computed, "failed", result.Failed)
	return result, nil
}

// Process moves a draft payroll to processed. A payroll whose deductions
// exceed gross pay can never be processed.
func (s *Service) Process(ctx context.Context, payrollID, processedBy string) (Record, error) {
	record, err := s.Store.GetByID(ctx, payrollID)
	if err != nil {
		return Record{}, err
	}
	if record.NetPay < 0 {
		component, amount := largestDeduction(recordComputation(record))
		return record, &ValidationError{Component: component, Amount: amount, Shortfall: -record.NetPay}
	}
	if err := s.Store.MarkProcessed(ctx, payrollID, processedBy); err != nil {
		return record, err
	}
	processed, err := s.Store.GetByID(ctx, payrollID)
	if err != nil {
		return Record{}, err
	}
	s.notifyProcessed(ctx, processed)
	return processed, nil
}

// notifyProcessed tells the employee their payroll went through. Delivery
// is best effort; the processed payroll is the durable record.
func (s *Service) notifyProcessed(ctx context.Context, record Record) {
	if s.Notifier == nil {
		return
	}
	employee, err := s.Org.Get(ctx, record.EmployeeID)
	if err != nil {
		slog.Warn("payroll notification lookup failed", "payrollId", record.ID, "err", err)
		return
	}
	period := record.Period()
	if err := s.Notifier.Create(ctx, employee.UserID, notifications.TypePayrollProcessed,
		"Payroll processed for "+period.String(),
		fmt.Sprintf("Your payroll for %s has been processed. Net pay: %.2f.", period.String(), record.NetPay)); err != nil {
		slog.Warn("payroll notification failed", "payrollId", record.ID, "err", err)
	}
}

func (s *Service) MarkPaid(ctx context.Context, payrollID string) error {
	return s.Store.MarkPaid(ctx, payrollID)
}

func recordComputation(r Record) Computation {
	return Computation{
		PAYETax:            r.PAYETax,
		NHIFDeduction:      r.NHIFDeduction,
		NSSFDeduction:      r.NSSFDeduction,
		InsuranceDeduction: r.InsuranceDeduction,
		LoanDeduction:      r.LoanDeduction,
		OtherDeductions:    r.OtherDeductions,
	}
}
