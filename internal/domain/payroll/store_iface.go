package payroll

import (
	"context"

	"hrcore/internal/domain/org"
)

// StoreAPI is what the service needs from persistence; the pgx Store
// implements it, tests substitute an in-memory one.
type StoreAPI interface {
	GetByID(ctx context.Context, id string) (Record, error)
	GetByEmployeePeriod(ctx context.Context, employeeID string, period PeriodKey) (Record, error)
	ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Record, error)
	ListForPeriod(ctx context.Context, period PeriodKey) ([]Record, error)
	Insert(ctx context.Context, r *Record) error
	UpdateComputation(ctx context.Context, r *Record) error
	MarkProcessed(ctx context.Context, id, processedBy string) error
	MarkPaid(ctx context.Context, id string) error
	ListAllowances(ctx context.Context, employeeID string) ([]Allowance, error)
	ActiveLoan(ctx context.Context, employeeID string) (*EmployeeLoan, error)
	ApplyRepayment(ctx context.Context, loanID, payrollID string, principal, interest float64) error
}

// OrgAPI resolves the employees a payroll run covers.
type OrgAPI interface {
	Get(ctx context.Context, id string) (org.Employee, error)
	List(ctx context.Context) ([]org.Employee, error)
}

// Notifier delivers in-app notifications; *notifications.Service
// implements it.
type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}
