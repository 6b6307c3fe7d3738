package payslip

import (
	"context"

	"hrcore/internal/domain/org"
	"hrcore/internal/domain/payroll"
)

// StoreAPI is what the service needs from persistence; the pgx Store
// implements it, tests substitute an in-memory one.
type StoreAPI interface {
	Insert(ctx context.Context, p *Payslip) error
	GetByID(ctx context.Context, id string) (Payslip, error)
	GetByPayrollID(ctx context.Context, payrollID string) (Payslip, error)
	ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Payslip, error)
	ListForPeriod(ctx context.Context, year, month int) ([]Payslip, error)
	SetFilePath(ctx context.Context, id, path string) error
	MarkEmailed(ctx context.Context, id string) error
	MarkDownloaded(ctx context.Context, id string) error
	FilePaths(ctx context.Context) ([]string, error)
}

// PayrollAPI is the slice of the payroll store the generator reads.
type PayrollAPI interface {
	GetByID(ctx context.Context, id string) (payroll.Record, error)
}

// OrgAPI resolves the employee a payroll belongs to.
type OrgAPI interface {
	Get(ctx context.Context, id string) (org.Employee, error)
}

// NotifierAPI delivers in-app notifications; *notifications.Service
// implements it.
type NotifierAPI interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}
